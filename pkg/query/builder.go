package query

import (
	"fmt"
	"reflect"
	"strings"
)

// arg marks a bound parameter inside a condition template.
const arg = "\x00"

type condition struct {
	clause string
	args   []any
}

// SortField is one ORDER BY term, named by projected field.
type SortField struct {
	Field      string
	Descending bool
}

// Builder accumulates filters and ordering for a single projection and
// renders them with dialect-appropriate placeholders.
type Builder struct {
	projection  *ProjectionMap
	dialect     Dialect
	conditions  []condition
	orderBy     []SortField
	defaultSort []SortField
}

// NewBuilder starts a PostgreSQL query over projection. defaultSort applies
// when no valid caller sort is supplied.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// Dialect switches placeholder and match syntax.
func (b *Builder) Dialect(d Dialect) *Builder {
	b.dialect = d
	return b
}

// ParseSortFields parses "name,-created_at" into ascending and descending
// terms. Blank input yields nil.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		if name == "" {
			continue
		}
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// OrderByFields replaces the caller sort. Fields the projection does not
// expose are dropped.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.orderBy = b.orderBy[:0]
	for _, f := range fields {
		if b.projection.Has(f.Field) {
			b.orderBy = append(b.orderBy, f)
		}
	}
	return b
}

// WhereEquals filters field = value. Nil values are ignored.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.where(b.projection.Column(field)+" = "+arg, value)
}

// WhereContains filters field by case-insensitive substring. Nil or empty
// values are ignored.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.where(b.match(field), containsPattern(*value))
}

// WhereRange bounds field inclusively. Either bound may be nil.
func (b *Builder) WhereRange(field string, low, high *float64) *Builder {
	col := b.projection.Column(field)
	if low != nil {
		b.where(col+" >= "+arg, *low)
	}
	if high != nil {
		b.where(col+" <= "+arg, *high)
	}
	return b
}

// WhereSearch ORs a substring match across fields. Nil or empty search is
// ignored.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := containsPattern(*search)
	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		clauses[i] = b.match(f)
		args[i] = pattern
	}
	return b.where("("+strings.Join(clauses, " OR ")+")", args...)
}

func (b *Builder) match(field string) string {
	return fmt.Sprintf(`%s %s %s ESCAPE '\'`, b.projection.Column(field), b.dialect.like(), arg)
}

func (b *Builder) where(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

// BuildCount renders SELECT COUNT(*) under the current filters.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.renderWhere()
	return "SELECT COUNT(*) FROM " + b.projection.Table() + where, args
}

// BuildPage renders one page of rows. page is 1-based.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.renderWhere()
	offset := max(page-1, 0) * pageSize
	return fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.projection.Columns(), b.projection.Table(), where, b.renderOrderBy(), pageSize, offset,
	), args
}

// BuildAll renders every matching row in order.
func (b *Builder) BuildAll() (string, []any) {
	where, args := b.renderWhere()
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.Table() + where + b.renderOrderBy(), args
}

// BuildSingle renders a lookup by idField, ignoring accumulated filters.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = %s",
		b.projection.Columns(), b.projection.Table(), b.projection.Column(idField), b.dialect.placeholder(1),
	), []any{id}
}

func (b *Builder) renderOrderBy() string {
	fields := b.orderBy
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = b.projection.Column(f.Field) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) renderWhere() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var (
		args    []any
		clauses = make([]string, len(b.conditions))
	)
	for i, c := range b.conditions {
		var sb strings.Builder
		rest := c.clause
		for _, a := range c.args {
			before, after, _ := strings.Cut(rest, arg)
			args = append(args, a)
			sb.WriteString(before)
			sb.WriteString(b.dialect.placeholder(len(args)))
			rest = after
		}
		sb.WriteString(rest)
		clauses[i] = sb.String()
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
