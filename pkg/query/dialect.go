package query

import (
	"strconv"
	"strings"
)

// Dialect captures the SQL differences the builder has to paper over.
type Dialect int

const (
	// Postgres numbers placeholders ($1, $2) and matches with ILIKE.
	Postgres Dialect = iota
	// SQLite uses ? placeholders; its LIKE is already case-insensitive for ASCII.
	SQLite
)

func (d Dialect) placeholder(n int) string {
	if d == SQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

func (d Dialect) like() string {
	if d == SQLite {
		return "LIKE"
	}
	return "ILIKE"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches value anywhere, treating its wildcards literally.
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}
