package query

import (
	"strings"
)

// reservedWords are quoted when used as bare select fields.
var reservedWords = map[string]struct{}{
	"name":  {},
	"group": {},
	"year":  {},
	"month": {},
	"key":   {},
}

// SQLBuilder renders Data as SQL text. It performs no escaping of identifiers:
// table and field names come from trusted code, values were encoded as literals.
type SQLBuilder struct {
	dialect Dialect
}

// NewSQLBuilder returns a builder for dialect; nil selects SQL Server.
func NewSQLBuilder(dialect Dialect) *SQLBuilder {
	if dialect == nil {
		dialect = SQLServer
	}
	return &SQLBuilder{dialect: dialect}
}

// Dialect returns the dialect used for rendering.
func (b *SQLBuilder) Dialect() Dialect {
	return b.dialect
}

// BuildSelect renders the projection, "*" when no field was selected.
func (b *SQLBuilder) BuildSelect(d Data, includeKeyword bool) string {
	list := "*"
	if len(d.SelectFields) > 0 {
		fields := make([]string, len(d.SelectFields))
		for i, f := range d.SelectFields {
			fields[i] = b.selectField(f)
		}
		list = strings.Join(fields, ", ")
	}
	if includeKeyword {
		return "select " + list
	}
	return list
}

func (b *SQLBuilder) selectField(f SelectField) string {
	field := f.Field
	if isBareIdentifier(field) {
		if _, reserved := reservedWords[strings.ToLower(field)]; reserved {
			field = b.dialect.QuoteIdentifier(field)
		}
	}
	if f.Alias != "" {
		return field + " as " + f.Alias
	}
	return field
}

// isBareIdentifier reports whether field is a plain, unqualified, unquoted name.
func isBareIdentifier(field string) bool {
	return field != "" && !strings.ContainsAny(field, `.()[]"`+"` *,")
}

// BuildLimit renders the prefix limit clause of the dialect ("top N").
func (b *SQLBuilder) BuildLimit(d Data) string {
	return b.dialect.LimitPrefix(d)
}

// BuildConditions renders the where clause. The join keyword of the first
// condition is never rendered, whatever its Type.
func (b *SQLBuilder) BuildConditions(d Data, includeWhere bool) string {
	if len(d.Conditions) == 0 {
		return ""
	}
	var sb strings.Builder
	if includeWhere {
		sb.WriteString("where ")
	}
	for i, c := range d.Conditions {
		if i > 0 {
			sb.WriteByte(' ')
			kind := c.Type
			if kind == None {
				kind = And
			}
			sb.WriteString(string(kind))
			sb.WriteByte(' ')
		}
		sb.WriteString(c.SQL())
	}
	return sb.String()
}

// BuildOrderBy renders the order by clause.
func (b *SQLBuilder) BuildOrderBy(d Data, includeOrderBy bool) string {
	if len(d.Orderings) == 0 {
		return ""
	}
	terms := make([]string, len(d.Orderings))
	for i, o := range d.Orderings {
		terms[i] = o.SQL()
	}
	list := strings.Join(terms, ", ")
	if includeOrderBy {
		return "order by " + list
	}
	return list
}

// Build renders a full select statement reading from table.
func (b *SQLBuilder) Build(d Data, from string) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	return join(
		"select",
		b.BuildLimit(d),
		b.BuildSelect(d, false),
		"from", from,
		b.BuildConditions(d, true),
		b.BuildOrderBy(d, true),
		b.dialect.LimitSuffix(d),
	), nil
}

// BuildAggregate renders "select fn(column) from table [where ...]".
// Orderings and limits of d are ignored.
func (b *SQLBuilder) BuildAggregate(fn, column string, d Data, from string) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	return join(
		"select", fn+"("+column+")",
		"from", from,
		b.BuildConditions(d, true),
	), nil
}

// BuildDistinct renders "select distinct column from table [where ...] [order by ...]".
func (b *SQLBuilder) BuildDistinct(column string, d Data, from string) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	return join(
		"select distinct", column,
		"from", from,
		b.BuildConditions(d, true),
		b.BuildOrderBy(d, true),
	), nil
}

// BuildGroup renders "select column, count(*) from table [where ...] group by column".
func (b *SQLBuilder) BuildGroup(column string, d Data, from string) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	return join(
		"select", column+", count(*)",
		"from", from,
		b.BuildConditions(d, true),
		"group by", column,
	), nil
}

// BuildDelete renders "delete from table [where ...]".
func (b *SQLBuilder) BuildDelete(d Data, from string) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	return join("delete from", from, b.BuildConditions(d, true)), nil
}

func join(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
