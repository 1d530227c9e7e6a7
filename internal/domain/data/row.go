package data

import "slices"

// Row represents a single table row.
// Cells are positional: Row[i] belongs to the table's i-th declared column.
type Row []Value

// NewRow creates a row of width cells, all null.
func NewRow(width int) Row {
	return make(Row, width)
}

// Copy creates a copy of the row to prevent mutation of shared storage.
// Nested arrays and objects are immutable once built, so a shallow copy is enough.
func (r Row) Copy() Row {
	if r == nil {
		return nil
	}
	return slices.Clone(r)
}

func (r Row) Equal(other Row) bool {
	return slices.EqualFunc(r, other, Value.Equal)
}
