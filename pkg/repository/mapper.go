package repository

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// EntityMapper defines how to map between entities and database rows
type EntityMapper[T any, ID comparable] interface {
	// ToRow converts an entity to column names and values for INSERT/UPDATE
	ToRow(entity *T) (columns []string, values []interface{}, err error)

	// FromRow scans a database row into an entity
	FromRow(rows *sql.Rows) (*T, error)

	// GetID extracts the ID from an entity
	GetID(entity *T) ID

	// SetID sets the ID on an entity
	SetID(entity *T, id ID)
}

// ReflectionMapper maps entities using their `db` struct tags.
// Untagged fields map to their lowercased name; `db:"-"` and unexported fields are skipped.
// Scanned values are converted to the field type, so INTEGER columns can fill int fields
// and TEXT timestamps can fill time.Time fields.
type ReflectionMapper[T any, ID comparable] struct {
	idField string
}

// NewReflectionMapper creates a new reflection-based entity mapper.
// idField is the Go name of the primary key field.
func NewReflectionMapper[T any, ID comparable](idField string) *ReflectionMapper[T, ID] {
	return &ReflectionMapper[T, ID]{
		idField: idField,
	}
}

// ToRow converts an entity to column names and values using reflection
func (m *ReflectionMapper[T, ID]) ToRow(entity *T) ([]string, []interface{}, error) {
	v := reflect.ValueOf(entity).Elem()
	if v.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("reflection mapper requires a struct, got %s", v.Kind())
	}
	t := v.Type()

	columns := []string{}
	values := []interface{}{}

	for i := 0; i < t.NumField(); i++ {
		columnName, ok := mappedColumn(t.Field(i))
		if !ok {
			continue
		}
		columns = append(columns, columnName)
		values = append(values, v.Field(i).Interface())
	}

	return columns, values, nil
}

// FromRow scans a database row into an entity using reflection
func (m *ReflectionMapper[T, ID]) FromRow(rows *sql.Rows) (*T, error) {
	entity := new(T)
	v := reflect.ValueOf(entity).Elem()
	t := v.Type()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	scanDest := make([]interface{}, len(columns))
	columnMap := make(map[string]int, len(columns))
	for i, col := range columns {
		columnMap[strings.ToLower(col)] = i
		scanDest[i] = new(interface{})
	}

	if err := rows.Scan(scanDest...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		columnName, ok := mappedColumn(field)
		if !ok {
			continue
		}

		colIndex, ok := columnMap[strings.ToLower(columnName)]
		if !ok {
			continue
		}
		value := *(scanDest[colIndex].(*interface{}))
		if value == nil {
			continue
		}
		if err := assignField(v.Field(i), value); err != nil {
			return nil, fmt.Errorf("column %s: %w", columnName, err)
		}
	}

	return entity, nil
}

// GetID extracts the ID from an entity using reflection
func (m *ReflectionMapper[T, ID]) GetID(entity *T) ID {
	var zero ID
	f := reflect.ValueOf(entity).Elem().FieldByName(m.idField)
	if !f.IsValid() {
		return zero
	}
	id, ok := f.Interface().(ID)
	if !ok {
		return zero
	}
	return id
}

// SetID sets the ID on an entity using reflection
func (m *ReflectionMapper[T, ID]) SetID(entity *T, id ID) {
	f := reflect.ValueOf(entity).Elem().FieldByName(m.idField)
	if f.IsValid() && f.CanSet() {
		f.Set(reflect.ValueOf(id))
	}
}

func mappedColumn(field reflect.StructField) (string, bool) {
	if !field.IsExported() {
		return "", false
	}
	name, _, _ := strings.Cut(field.Tag.Get("db"), ",")
	if name == "-" {
		return "", false
	}
	if name == "" {
		name = strings.ToLower(field.Name)
	}
	return name, true
}

var timeType = reflect.TypeOf(time.Time{})

// assignField stores a scanned driver value into field, converting between
// the representations drivers use (int64, float64, []byte, string, time.Time).
func assignField(field reflect.Value, value any) error {
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(field.Type()) {
		field.Set(rv)
		return nil
	}

	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := assignField(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	if field.Type() == timeType {
		t, err := cast.ToTimeE(normalizeScanned(value))
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
		return nil
	}

	value = normalizeScanned(value)
	switch field.Kind() {
	case reflect.String:
		s, err := cast.ToStringE(value)
		if err != nil {
			return err
		}
		field.SetString(s)
	case reflect.Bool:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(value)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(value)
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		if !rv.Type().ConvertibleTo(field.Type()) {
			return fmt.Errorf("cannot assign %T to %s", value, field.Type())
		}
		field.Set(rv.Convert(field.Type()))
	}
	return nil
}
