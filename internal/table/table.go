// Package table decodes the column-oriented JSON shape the quote source
// returns: field names are listed once under "columns" and values come as
// parallel rows of positional cells under "data".
package table

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyTable marks a structurally valid table with zero rows. Callers
	// that need row 0 as a fallback must check for it explicitly.
	ErrEmptyTable = errors.New("table: no rows")
	// ErrRowOutOfRange is returned by Row for an index beyond the row count.
	ErrRowOutOfRange = errors.New("table: row index out of range")
)

// Table is an immutable decoded column table. Column names are unique within
// one table; rows are positionally aligned to the column list.
type Table struct {
	columns []string
	rows    []Row
}

// Row is one positional record. Cells are nil, string or float64
// (json.Unmarshal's number representation).
type Row []any

type wireTable struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

// Decode parses one {"columns": [...], "data": [[...]]} object. Every row
// must have exactly as many cells as there are columns.
func Decode(raw json.RawMessage) (*Table, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("table: missing payload")
	}
	var w wireTable
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("table: decode: %w", err)
	}
	if w.Columns == nil {
		return nil, fmt.Errorf("table: missing columns")
	}
	rows := make([]Row, 0, len(w.Data))
	for i, cells := range w.Data {
		if len(cells) != len(w.Columns) {
			return nil, fmt.Errorf("table: row %d has %d cells, want %d", i, len(cells), len(w.Columns))
		}
		rows = append(rows, Row(cells))
	}
	return &Table{columns: w.Columns, rows: rows}, nil
}

// Len reports the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// ColumnIndex returns the position of name in the column list, or -1 when
// the table has no such column. Tables are small; a linear scan is fine.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Row returns the i-th row.
func (t *Table) Row(i int) (Row, error) {
	if i < 0 || i >= len(t.rows) {
		return nil, fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, i, len(t.rows))
	}
	return t.rows[i], nil
}

// First returns row 0 or ErrEmptyTable.
func (t *Table) First() (Row, error) {
	if len(t.rows) == 0 {
		return nil, ErrEmptyTable
	}
	return t.rows[0], nil
}

// FindRow scans top to bottom and returns the first row whose cell under
// column equals value. Used to pick one trading board out of the several
// rows the source multiplexes per instrument.
func (t *Table) FindRow(column, value string) (Row, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil, false
	}
	for _, r := range t.rows {
		if s, ok := r.String(idx); ok && s == value {
			return r, true
		}
	}
	return nil, false
}

// Float64 returns the cell at i as a float. The second result is false for a
// nil cell, a negative or out-of-range index, a non-numeric cell, or a
// NaN/Inf value.
func (r Row) Float64(i int) (float64, bool) {
	if i < 0 || i >= len(r) || r[i] == nil {
		return 0, false
	}
	f, ok := r[i].(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String returns the cell at i as a string, with the same absent rules as
// Float64. Numeric cells are not coerced.
func (r Row) String(i int) (string, bool) {
	if i < 0 || i >= len(r) || r[i] == nil {
		return "", false
	}
	s, ok := r[i].(string)
	return s, ok
}

// Int64 returns the cell at i truncated to an integer.
func (r Row) Int64(i int) (int64, bool) {
	f, ok := r.Float64(i)
	if !ok {
		return 0, false
	}
	return int64(f), true
}
