package schema

import (
	"fmt"
	"slices"

	"github.com/leengari/dbon/internal/domain/data"
	domainerrors "github.com/leengari/dbon/internal/domain/errors"
)

// Record is one stored row together with the key that identifies it.
// Keeping key and cells in one element makes key/row alignment structural.
type Record struct {
	Key   string
	Cells data.Row
}

// Table represents a DBON table: a fixed list of columns, the relation
// metadata declared for each column, and keyed rows whose cells are
// positionally aligned with the columns.
type Table struct {
	Name      string
	columns   []string
	relations []string // parallel to columns, "" means no relation
	records   []Record
}

// NewTable builds an empty table from column specs.
// Every spec needs a name and names must not repeat.
func NewTable(name string, specs []ColumnSpec) (*Table, error) {
	columns := make([]string, 0, len(specs))
	relations := make([]string, 0, len(specs))

	for pos, spec := range specs {
		if spec.Name == "" {
			return nil, &domainerrors.InvalidColumnSpecError{
				TableName: name,
				Position:  pos,
				Reason:    "missing name",
			}
		}
		if slices.Contains(columns, spec.Name) {
			return nil, &domainerrors.InvalidColumnSpecError{
				TableName: name,
				Position:  pos,
				Reason:    fmt.Sprintf("duplicate column %q", spec.Name),
			}
		}
		columns = append(columns, spec.Name)
		relations = append(relations, spec.Relation)
	}

	return &Table{
		Name:      name,
		columns:   columns,
		relations: relations,
		records:   []Record{},
	}, nil
}

// RestoreTable rebuilds a table from its persisted parallel sequences.
// It re-checks the alignment invariants so a table can never be
// materialized in a state the storage operations would not produce.
func RestoreTable(name string, columns, relations, keys []string, values []data.Row) (*Table, error) {
	if relations == nil {
		relations = make([]string, len(columns))
	}
	if len(relations) != len(columns) {
		return nil, fmt.Errorf("table %q: %d relations for %d columns", name, len(relations), len(columns))
	}
	if len(keys) != len(values) {
		return nil, fmt.Errorf("table %q: %d keys for %d rows", name, len(keys), len(values))
	}

	specs := make([]ColumnSpec, len(columns))
	for i, col := range columns {
		specs[i] = ColumnSpec{Name: col, Relation: relations[i]}
	}
	t, err := NewTable(name, specs)
	if err != nil {
		return nil, err
	}

	t.records = make([]Record, 0, len(keys))
	for i, key := range keys {
		if _, dup := t.KeyIndex(key); dup {
			return nil, fmt.Errorf("table %q: duplicate key %q", name, key)
		}
		if len(values[i]) != len(columns) {
			return nil, fmt.Errorf("table %q: row %d has %d cells for %d columns", name, i, len(values[i]), len(columns))
		}
		t.records = append(t.records, Record{Key: key, Cells: values[i].Copy()})
	}
	return t, nil
}

// NumOfCols returns the number of declared columns.
func (t *Table) NumOfCols() int { return len(t.columns) }

// Len returns the number of keys (and rows).
func (t *Table) Len() int { return len(t.records) }

func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Relations returns the relation target of every column, "" where absent.
func (t *Table) Relations() []string { return slices.Clone(t.relations) }

// IsRelational reports whether any column declares a relation.
func (t *Table) IsRelational() bool {
	return slices.ContainsFunc(t.relations, func(r string) bool { return r != "" })
}

// Keys returns the row keys in storage order.
func (t *Table) Keys() []string {
	keys := make([]string, len(t.records))
	for i, rec := range t.records {
		keys[i] = rec.Key
	}
	return keys
}

// Values returns copies of the rows in storage order.
func (t *Table) Values() []data.Row {
	rows := make([]data.Row, len(t.records))
	for i, rec := range t.records {
		rows[i] = rec.Cells.Copy()
	}
	return rows
}

// Records returns copies of every key/row pair in storage order.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	for i, rec := range t.records {
		out[i] = Record{Key: rec.Key, Cells: rec.Cells.Copy()}
	}
	return out
}

// Row returns a copy of the row stored under key.
func (t *Table) Row(key string) (data.Row, bool) {
	pos, ok := t.KeyIndex(key)
	if !ok {
		return nil, false
	}
	return t.records[pos].Cells.Copy(), true
}

// ColumnIndex returns the position of the column called name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for pos, col := range t.columns {
		if col == name {
			return pos, true
		}
	}
	return -1, false
}

// KeyIndex returns the storage position of key.
func (t *Table) KeyIndex(key string) (int, bool) {
	for pos, rec := range t.records {
		if rec.Key == key {
			return pos, true
		}
	}
	return -1, false
}

// Project lays values out in column order. Names that are not declared
// columns are ignored; columns missing from values stay null.
func (t *Table) Project(values map[string]data.Value) data.Row {
	row := data.NewRow(len(t.columns))
	for name, v := range values {
		if pos, ok := t.ColumnIndex(name); ok {
			row[pos] = v
		}
	}
	return row
}

// Upsert stores the projection of values under key, replacing the existing
// row in place when the key is already present.
// It reports whether a new key was appended. A cell that fails
// data.Value.Validate leaves the table untouched.
func (t *Table) Upsert(key string, values map[string]data.Value) (bool, error) {
	row := t.Project(values)
	for pos, v := range row {
		if err := t.checkValue(pos, v); err != nil {
			return false, err
		}
	}
	if pos, ok := t.KeyIndex(key); ok {
		t.records[pos].Cells = row
		return false, nil
	}
	t.records = append(t.records, Record{Key: key, Cells: row})
	return true, nil
}

func (t *Table) checkValue(colPos int, v data.Value) error {
	if err := v.Validate(); err != nil {
		return &domainerrors.InvalidValueError{TableName: t.Name, ColumnName: t.columns[colPos], Reason: err.Error()}
	}
	return nil
}

// resolveCell maps a (key, column) pair to storage positions.
// The column is resolved first, so an unknown column wins over an unknown key.
func (t *Table) resolveCell(key, column string) (int, int, error) {
	colPos, ok := t.ColumnIndex(column)
	if !ok {
		return 0, 0, &domainerrors.ColumnNotFoundError{TableName: t.Name, ColumnName: column}
	}
	keyPos, ok := t.KeyIndex(key)
	if !ok {
		return 0, 0, &domainerrors.KeyNotFoundError{TableName: t.Name, Key: key}
	}
	return keyPos, colPos, nil
}

// SetCell overwrites a single cell.
func (t *Table) SetCell(key, column string, v data.Value) error {
	keyPos, colPos, err := t.resolveCell(key, column)
	if err != nil {
		return err
	}
	if err := t.checkValue(colPos, v); err != nil {
		return err
	}
	t.records[keyPos].Cells[colPos] = v
	return nil
}

// GetCell returns a single cell. An unset cell is a null Value, not an error.
func (t *Table) GetCell(key, column string) (data.Value, error) {
	keyPos, colPos, err := t.resolveCell(key, column)
	if err != nil {
		return data.Value{}, err
	}
	return t.records[keyPos].Cells[colPos], nil
}

// RemoveKey deletes key and its row. Every other key keeps its row.
func (t *Table) RemoveKey(key string) error {
	pos, ok := t.KeyIndex(key)
	if !ok {
		return &domainerrors.KeyNotFoundError{TableName: t.Name, Key: key}
	}
	t.records = slices.Delete(t.records, pos, pos+1)
	return nil
}

// Scan calls fn for every cell in key-major, column-minor order until fn
// returns false. fn must not mutate the table.
func (t *Table) Scan(fn func(key, column string, v data.Value) bool) {
	for _, rec := range t.records {
		for colPos, col := range t.columns {
			if !fn(rec.Key, col, rec.Cells[colPos]) {
				return
			}
		}
	}
}
