package query

import "strings"

// ConditionType joins a condition to the one before it.
type ConditionType string

// Condition join constants
const (
	// None marks the first condition of a chain.
	None ConditionType = ""
	// And joins with the previous condition using AND.
	And ConditionType = "And"
	// Or joins with the previous condition using OR.
	Or ConditionType = "Or"
)

// Comparison is the operator text placed between field and value.
type Comparison string

// Comparison constants
const (
	Equal        Comparison = "="
	NotEqual     Comparison = "<>"
	IsNull       Comparison = "is null"
	IsNotNull    Comparison = "is not null"
	InList       Comparison = "in"
	NotInList    Comparison = "not in"
	LikePattern  Comparison = "like"
	Less         Comparison = "<"
	LessOrEqual  Comparison = "<="
	Greater      Comparison = ">"
	GreaterEqual Comparison = ">="
)

// Condition is one predicate of a where clause.
// Value is the encoded SQL literal, never a raw Go value.
type Condition struct {
	Type       ConditionType
	Field      string
	Comparison Comparison
	Value      string
}

// Complete reports whether the condition has a comparison.
func (c Condition) Complete() bool {
	return c.Comparison != ""
}

// SQL renders "field comparison value" without the join keyword.
func (c Condition) SQL() string {
	parts := []string{c.Field, string(c.Comparison)}
	if c.Value != "" {
		parts = append(parts, c.Value)
	}
	return strings.Join(parts, " ")
}

// Ordering is a sort direction.
type Ordering string

// Ordering constants
const (
	Asc  Ordering = "Asc"
	Desc Ordering = "Desc"
)

// OrderByClause is one term of an order by clause.
type OrderByClause struct {
	Field    string
	Ordering Ordering
}

// SQL renders "field direction".
func (o OrderByClause) SQL() string {
	return o.Field + " " + string(o.Ordering)
}

// SelectField is one projected column, optionally aliased.
type SelectField struct {
	Field string
	Alias string
}
