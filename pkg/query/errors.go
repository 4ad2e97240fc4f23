package query

import "errors"

var (
	// ErrInvalidField is returned when a field reference cannot be resolved to a column.
	ErrInvalidField = errors.New("invalid field reference")

	// ErrNoOpenCondition is returned when a comparison is applied before Where, And or Or.
	ErrNoOpenCondition = errors.New("comparison without an open condition")

	// ErrComparisonAlreadySet is returned when a second comparison targets the same condition.
	ErrComparisonAlreadySet = errors.New("condition already has a comparison")

	// ErrIncompleteCondition is returned when a condition was started but never compared.
	ErrIncompleteCondition = errors.New("condition has no comparison")

	// ErrInvalidLimit is returned for negative limits or offsets.
	ErrInvalidLimit = errors.New("limit and offset must not be negative")

	// ErrUnsupportedValue is returned by Value for Go types with no literal encoding.
	ErrUnsupportedValue = errors.New("unsupported literal value")

	// ErrEmptyList is returned when In or NotIn is given no values.
	ErrEmptyList = errors.New("in list has no values")

	// ErrNilQuery is returned when criteria are read from a nil *Query.
	ErrNilQuery = errors.New("nil query")

	// ErrUnknownDialect is returned by DialectFor for unrecognised names.
	ErrUnknownDialect = errors.New("unknown sql dialect")
)
