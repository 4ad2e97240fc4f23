package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout used to render date literals.
const DateLayout = "2006-01-02"

// Literal is a value already encoded as SQL text.
// The set of implementations is closed; use the constructors in this package.
type Literal interface {
	// SQL returns the encoded literal.
	SQL() string
	literal()
}

// StringLit is a quoted string literal.
type StringLit string

// SQL quotes the string and doubles embedded single quotes.
func (s StringLit) SQL() string {
	return "'" + strings.ReplaceAll(string(s), "'", "''") + "'"
}

func (StringLit) literal() {}

// DateLit is a quoted short date literal.
type DateLit time.Time

// SQL renders the date as 'YYYY-MM-DD'.
func (d DateLit) SQL() string {
	return "'" + time.Time(d).Format(DateLayout) + "'"
}

func (DateLit) literal() {}

// BoolLit renders as 1 or 0.
type BoolLit bool

// SQL returns 1 for true and 0 for false.
func (b BoolLit) SQL() string {
	if b {
		return "1"
	}
	return "0"
}

func (BoolLit) literal() {}

// NumericLit holds a number already formatted in invariant notation.
type NumericLit string

// SQL returns the number text unchanged.
func (n NumericLit) SQL() string { return string(n) }

func (NumericLit) literal() {}

// NullLit is the empty value carried by null comparisons.
type NullLit struct{}

// SQL returns an empty string; the comparison itself carries "is null".
func (NullLit) SQL() string { return "" }

func (NullLit) literal() {}

// ListLit is a parenthesised list used by in / not in.
type ListLit []Literal

// SQL renders "(a, b, c)".
func (l ListLit) SQL() string {
	parts := make([]string, len(l))
	for i, item := range l {
		parts[i] = item.SQL()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (ListLit) literal() {}

// Number is the set of Go numeric types accepted by Number.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// String builds a string literal.
func String(s string) StringLit { return StringLit(s) }

// Date builds a date literal.
func Date(t time.Time) DateLit { return DateLit(t) }

// Bool builds a boolean literal.
func Bool(b bool) BoolLit { return BoolLit(b) }

// Int builds an integer literal.
func Int(i int64) NumericLit { return NumericLit(strconv.FormatInt(i, 10)) }

// Float builds a floating point literal.
func Float(f float64) NumericLit { return NumericLit(strconv.FormatFloat(f, 'f', -1, 64)) }

// Num builds a numeric literal from any Go number type.
func Num[N Number](n N) NumericLit {
	switch v := any(n).(type) {
	case float32:
		return NumericLit(strconv.FormatFloat(float64(v), 'f', -1, 32))
	case float64:
		return Float(v)
	}
	return NumericLit(fmt.Sprint(n))
}

// Strings builds a list of string literals.
func Strings(values ...string) ListLit {
	out := make(ListLit, len(values))
	for i, v := range values {
		out[i] = String(v)
	}
	return out
}

// Nums builds a list of numeric literals.
func Nums[N Number](values ...N) ListLit {
	out := make(ListLit, len(values))
	for i, v := range values {
		out[i] = Num(v)
	}
	return out
}

// Value encodes a dynamically typed Go value.
// It is used where values arrive untyped (filter files, reflected entity fields).
func Value(v any) (Literal, error) {
	switch x := v.(type) {
	case nil:
		return NullLit{}, nil
	case Literal:
		return x, nil
	case string:
		return String(x), nil
	case []byte:
		return String(string(x)), nil
	case bool:
		return Bool(x), nil
	case time.Time:
		return Date(x), nil
	case int:
		return Num(x), nil
	case int8:
		return Num(x), nil
	case int16:
		return Num(x), nil
	case int32:
		return Num(x), nil
	case int64:
		return Num(x), nil
	case uint:
		return Num(x), nil
	case uint8:
		return Num(x), nil
	case uint16:
		return Num(x), nil
	case uint32:
		return Num(x), nil
	case uint64:
		return Num(x), nil
	case float32:
		return Num(x), nil
	case float64:
		return Num(x), nil
	case []string:
		return Strings(x...), nil
	case []int:
		return Nums(x...), nil
	case []int64:
		return Nums(x...), nil
	case []any:
		list := make(ListLit, 0, len(x))
		for _, item := range x {
			lit, err := Value(item)
			if err != nil {
				return nil, err
			}
			list = append(list, lit)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}
