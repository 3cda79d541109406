// Package table holds the in-memory tabular model shared by every pipeline
// stage: an ordered set of named columns over rows of loosely typed cells.
// A nil cell means the value is missing; coercion failures degrade to nil
// instead of raising, which is what makes the normalizer idempotent.
package table

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// TimeOfDay is a wall-clock time without a date, parsed from "HH:MM" fields.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String formats the time as zero-padded "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Table is an ordered collection of named columns over rows of cells.
// Cells are one of: nil (missing), string, float64, bool, time.Time, TimeOfDay.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]any
}

// New creates an empty table with the given column order.
func New(cols ...string) *Table {
	t := &Table{
		cols:  append([]string(nil), cols...),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range t.cols {
		t.index[c] = i
	}
	return t
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// AppendRow appends a row. The cell count must match the column count.
func (t *Table) AppendRow(cells ...any) error {
	if len(cells) != len(t.cols) {
		return eris.Errorf("table: row has %d cells, want %d", len(cells), len(t.cols))
	}
	t.rows = append(t.rows, append([]any(nil), cells...))
	return nil
}

// AppendEmptyRow appends a row of all-missing cells and returns its index.
func (t *Table) AppendEmptyRow() int {
	t.rows = append(t.rows, make([]any, len(t.cols)))
	return len(t.rows) - 1
}

// Cell returns the value at (row, col), or nil when the column does not exist.
func (t *Table) Cell(row int, col string) any {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.rows) {
		return nil
	}
	return t.rows[row][i]
}

// SetCell writes a value at (row, col). Unknown columns are ignored.
func (t *Table) SetCell(row int, col string, v any) {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.rows) {
		return
	}
	t.rows[row][i] = v
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := New(t.cols...)
	out.rows = make([][]any, len(t.rows))
	for i, r := range t.rows {
		out.rows[i] = append([]any(nil), r...)
	}
	return out
}

// DropColumns returns a new table without the named columns. Names that do
// not exist are ignored.
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	var kept []string
	var keptIdx []int
	for i, c := range t.cols {
		if !drop[c] {
			kept = append(kept, c)
			keptIdx = append(keptIdx, i)
		}
	}

	out := New(kept...)
	out.rows = make([][]any, len(t.rows))
	for r, row := range t.rows {
		cells := make([]any, len(keptIdx))
		for j, i := range keptIdx {
			cells[j] = row[i]
		}
		out.rows[r] = cells
	}
	return out
}

// Select returns a new table containing only the rows for which keep returns
// true, preserving order and columns.
func (t *Table) Select(keep func(row int) bool) *Table {
	out := New(t.cols...)
	for r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, append([]any(nil), t.rows[r]...))
		}
	}
	return out
}

// AsString extracts a string cell. Missing and non-string cells report false.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsFloat extracts a numeric cell.
func AsFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// AsBool extracts a boolean cell.
func AsBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// AsTime extracts a date or timestamp cell.
func AsTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

// AsClock extracts a time-of-day cell.
func AsClock(v any) (TimeOfDay, bool) {
	t, ok := v.(TimeOfDay)
	return t, ok
}
