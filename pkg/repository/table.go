package repository

import (
	"database/sql"
	"fmt"
)

// Table is an in-memory tabular result used by reporting reads that bypass entity mapping.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Value returns the value of column in row. ok is false when either is out of range.
func (t *Table) Value(row int, column string) (any, bool) {
	if row < 0 || row >= len(t.Rows) {
		return nil, false
	}
	for i, c := range t.Columns {
		if c == column {
			return t.Rows[row][i], true
		}
	}
	return nil, false
}

// scanTable reads every remaining row of rows.
// Byte slices are copied into strings since drivers reuse their buffers.
func scanTable(rows *sql.Rows) (*Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	table := &Table{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			values[i] = normalizeScanned(v)
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return table, nil
}

func normalizeScanned(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
