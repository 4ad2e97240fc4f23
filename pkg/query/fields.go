package query

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Column is a compile-time column token. Declaring entity columns as Column
// constants keeps field names out of ad hoc strings at call sites.
type Column string

// String returns the column name.
func (c Column) String() string { return string(c) }

var columnCache sync.Map // reflect.Type -> map[string]string

// ColumnOf resolves a struct field name of T to its column name.
// The column is the `db` tag when present, otherwise the lowercased field name.
// Fields tagged db:"-" and unknown names are rejected.
func ColumnOf[T any](fieldName string) (Column, error) {
	columns, err := columnsOf(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return "", err
	}
	col, ok := columns[fieldName]
	if !ok {
		return "", fmt.Errorf("%w: %s has no mapped field %q", ErrInvalidField, reflect.TypeOf((*T)(nil)).Elem(), fieldName)
	}
	return Column(col), nil
}

// Columns lists the mapped columns of T in declaration order.
func Columns[T any]() []Column {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil
	}
	out := make([]Column, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if col, ok := columnName(t.Field(i)); ok {
			out = append(out, Column(col))
		}
	}
	return out
}

func columnsOf(t reflect.Type) (map[string]string, error) {
	if cached, ok := columnCache.Load(t); ok {
		return cached.(map[string]string), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidField, t)
	}

	columns := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if col, ok := columnName(field); ok {
			columns[field.Name] = col
		}
	}
	columnCache.Store(t, columns)
	return columns, nil
}

func columnName(field reflect.StructField) (string, bool) {
	if !field.IsExported() {
		return "", false
	}
	tag := field.Tag.Get("db")
	if tag == "-" {
		return "", false
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, true
	}
	return strings.ToLower(field.Name), true
}
