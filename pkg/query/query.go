package query

import (
	"errors"
	"fmt"
)

// Query is a fluent builder for a select statement over entities of type T.
//
// Conditions are appended as soon as Where, And or Or is called and completed by
// the next comparison method (Is, Like, In, ...). There is no pending state: the
// builder only ever holds its list of conditions, orderings and projections.
// Misuse is recorded and reported by End, Data and Build; later calls are ignored
// once an error has been recorded.
type Query[T any] struct {
	data Data
	err  error
}

// New returns an empty query for T.
func New[T any]() *Query[T] {
	return &Query[T]{}
}

// Table returns an empty query on the given table.
func Table(name string) *Query[struct{}] {
	return New[struct{}]().From(name)
}

// From sets the table the query reads from.
func (q *Query[T]) From(table string) *Query[T] {
	q.data.From = table
	return q
}

// Select appends projected columns.
func (q *Query[T]) Select(fields ...Column) *Query[T] {
	for _, f := range fields {
		q.data.SelectFields = append(q.data.SelectFields, SelectField{Field: string(f)})
	}
	return q
}

// SelectAs appends a projected column with an alias.
func (q *Query[T]) SelectAs(field Column, alias string) *Query[T] {
	q.data.SelectFields = append(q.data.SelectFields, SelectField{Field: string(field), Alias: alias})
	return q
}

// Where starts a condition on field. On a non-empty query it behaves like And.
func (q *Query[T]) Where(field Column) *Query[T] {
	if len(q.data.Conditions) == 0 {
		return q.open(None, field)
	}
	return q.open(And, field)
}

// And starts a condition joined with AND.
func (q *Query[T]) And(field Column) *Query[T] {
	return q.open(And, field)
}

// Or starts a condition joined with OR.
func (q *Query[T]) Or(field Column) *Query[T] {
	return q.open(Or, field)
}

// WhereField starts a condition on the column mapped to the struct field name of T.
func (q *Query[T]) WhereField(name string) *Query[T] {
	return q.openField(q.Where, name)
}

// AndField is And for a struct field name of T.
func (q *Query[T]) AndField(name string) *Query[T] {
	return q.openField(q.And, name)
}

// OrField is Or for a struct field name of T.
func (q *Query[T]) OrField(name string) *Query[T] {
	return q.openField(q.Or, name)
}

func (q *Query[T]) openField(next func(Column) *Query[T], name string) *Query[T] {
	if q.err != nil {
		return q
	}
	col, err := ColumnOf[T](name)
	if err != nil {
		q.err = err
		return q
	}
	return next(col)
}

func (q *Query[T]) open(kind ConditionType, field Column) *Query[T] {
	if q.err != nil {
		return q
	}
	if field == "" {
		q.err = fmt.Errorf("%w: empty column", ErrInvalidField)
		return q
	}
	if len(q.data.Conditions) == 0 {
		kind = None
	}
	q.data.Conditions = append(q.data.Conditions, Condition{Type: kind, Field: string(field)})
	return q
}

func (q *Query[T]) compare(op Comparison, value Literal) *Query[T] {
	if q.err != nil {
		return q
	}
	n := len(q.data.Conditions)
	if n == 0 {
		q.err = fmt.Errorf("%w: %s", ErrNoOpenCondition, op)
		return q
	}
	last := &q.data.Conditions[n-1]
	if last.Complete() {
		q.err = fmt.Errorf("%w: %s %s", ErrComparisonAlreadySet, last.Field, last.Comparison)
		return q
	}
	if list, ok := value.(ListLit); ok && len(list) == 0 {
		q.err = fmt.Errorf("%w: %s %s", ErrEmptyList, last.Field, op)
		return q
	}
	last.Comparison = op
	last.Value = value.SQL()
	return q
}

// Is compares the open condition for equality.
func (q *Query[T]) Is(value Literal) *Query[T] { return q.compare(Equal, value) }

// Not compares the open condition for inequality.
func (q *Query[T]) Not(value Literal) *Query[T] { return q.compare(NotEqual, value) }

// Null requires the open condition's field to be null.
func (q *Query[T]) Null() *Query[T] { return q.compare(IsNull, NullLit{}) }

// NotNull requires the open condition's field to be non-null.
func (q *Query[T]) NotNull() *Query[T] { return q.compare(IsNotNull, NullLit{}) }

// In requires the field to be one of values.
func (q *Query[T]) In(values ...Literal) *Query[T] { return q.compare(InList, ListLit(values)) }

// NotIn requires the field to be none of values.
func (q *Query[T]) NotIn(values ...Literal) *Query[T] { return q.compare(NotInList, ListLit(values)) }

// Like matches the field against a pattern.
func (q *Query[T]) Like(pattern string) *Query[T] { return q.compare(LikePattern, String(pattern)) }

// LessThan compares with <.
func (q *Query[T]) LessThan(value Literal) *Query[T] { return q.compare(Less, value) }

// LessEqual compares with <=.
func (q *Query[T]) LessEqual(value Literal) *Query[T] { return q.compare(LessOrEqual, value) }

// MoreThan compares with >.
func (q *Query[T]) MoreThan(value Literal) *Query[T] { return q.compare(Greater, value) }

// MoreEqual compares with >=.
func (q *Query[T]) MoreEqual(value Literal) *Query[T] { return q.compare(GreaterEqual, value) }

// Compare applies an arbitrary comparison; used when conditions come from configuration.
func (q *Query[T]) Compare(op Comparison, value Literal) *Query[T] { return q.compare(op, value) }

// OrderBy appends an ascending ordering.
func (q *Query[T]) OrderBy(field Column) *Query[T] {
	q.data.Orderings = append(q.data.Orderings, OrderByClause{Field: string(field), Ordering: Asc})
	return q
}

// OrderByDescending appends a descending ordering.
func (q *Query[T]) OrderByDescending(field Column) *Query[T] {
	q.data.Orderings = append(q.data.Orderings, OrderByClause{Field: string(field), Ordering: Desc})
	return q
}

// Limit caps the number of returned records.
func (q *Query[T]) Limit(n int) *Query[T] {
	if q.err != nil {
		return q
	}
	if n < 0 {
		q.err = fmt.Errorf("%w: limit %d", ErrInvalidLimit, n)
		return q
	}
	q.data.RecordLimit = n
	q.data.IsRecordLimitEnabled = true
	return q
}

// Offset skips the first n records. Dialects without offset support ignore it.
func (q *Query[T]) Offset(n int) *Query[T] {
	if q.err != nil {
		return q
	}
	if n < 0 {
		q.err = fmt.Errorf("%w: offset %d", ErrInvalidLimit, n)
		return q
	}
	q.data.Offset = n
	return q
}

// End finishes the chain and reports any recorded misuse. It can be called any
// number of times; it never changes the accumulated data.
func (q *Query[T]) End() error {
	if q == nil {
		return ErrNilQuery
	}
	if q.err != nil {
		return q.err
	}
	return q.data.Validate()
}

// Complete is an alias of End.
func (q *Query[T]) Complete() error {
	return q.End()
}

// Err returns the first recorded misuse, if any.
func (q *Query[T]) Err() error {
	if q == nil {
		return ErrNilQuery
	}
	return q.err
}

// Data returns a copy of the accumulated query data.
func (q *Query[T]) Data() (Data, error) {
	if err := q.End(); err != nil {
		return Data{}, err
	}
	return q.data.Clone(), nil
}

// Build renders the query for dialect. A nil dialect renders SQL Server syntax.
func (q *Query[T]) Build(dialect Dialect) (string, error) {
	d, err := q.Data()
	if err != nil {
		return "", err
	}
	if d.From == "" {
		return "", errors.New("query has no table")
	}
	return NewSQLBuilder(dialect).Build(d, d.From)
}

// String renders the query in SQL Server syntax, or the error text.
func (q *Query[T]) String() string {
	s, err := q.Build(SQLServer)
	if err != nil {
		return "invalid query: " + err.Error()
	}
	return s
}
