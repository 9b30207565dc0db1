// Package query builds the parameterized SELECT statements behind the list
// and lookup endpoints, for PostgreSQL and SQLite.
package query

import "strings"

// ProjectionMap maps the field names exposed to callers onto qualified
// columns of one aliased table. Only projected fields can be sorted on.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	columns map[string]string
	order   []string
}

// NewProjectionMap describes schema.table aliased as alias. An empty schema
// yields an unqualified table, as SQLite expects.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project exposes column under field. Columns are selected in the order
// they are projected, which is the order scan functions must follow.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.columns[field] = qualified
	p.order = append(p.order, qualified)
	return p
}

func (p *ProjectionMap) Alias() string {
	return p.alias
}

// Table renders the FROM target, e.g. "public.sessions s".
func (p *ProjectionMap) Table() string {
	if p.schema == "" {
		return p.table + " " + p.alias
	}
	return p.schema + "." + p.table + " " + p.alias
}

// Has reports whether field is projected.
func (p *ProjectionMap) Has(field string) bool {
	_, ok := p.columns[field]
	return ok
}

// Column resolves field to its qualified column. Unprojected names are
// returned unchanged so code can reference computed expressions; callers
// must never pass request input here without checking Has.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.columns[field]; ok {
		return col
	}
	return field
}

func (p *ProjectionMap) Columns() string {
	return strings.Join(p.order, ", ")
}

func (p *ProjectionMap) ColumnList() []string {
	return append([]string(nil), p.order...)
}
