package schema

import (
	"fmt"

	domainerrors "github.com/leengari/dbon/internal/domain/errors"
)

// Database is the in-memory form of a DBON document: a name and an ordered
// directory of uniquely named tables.
type Database struct {
	Name   string
	tables []*Table
}

func NewDatabase(name string) *Database {
	return &Database{Name: name}
}

// NumOfTables is derived from the directory; it is never tracked separately.
func (db *Database) NumOfTables() int {
	return len(db.tables)
}

// Tables returns the tables in directory order.
// The slice is a copy; the tables themselves are shared.
func (db *Database) Tables() []*Table {
	out := make([]*Table, len(db.tables))
	copy(out, db.tables)
	return out
}

func (db *Database) TableNames() []string {
	names := make([]string, len(db.tables))
	for i, t := range db.tables {
		names[i] = t.Name
	}
	return names
}

// FindTableIndex returns the position of the table called name.
func (db *Database) FindTableIndex(name string) (int, bool) {
	for pos, candidate := range db.tables {
		if candidate.Name == name {
			return pos, true
		}
	}
	return -1, false
}

// Table resolves a table by name.
func (db *Database) Table(name string) (*Table, bool) {
	pos, ok := db.FindTableIndex(name)
	if !ok {
		return nil, false
	}
	return db.tables[pos], true
}

// LookupTable resolves a table by name or returns a TableNotFoundError.
func (db *Database) LookupTable(name string) (*Table, error) {
	t, ok := db.Table(name)
	if !ok {
		return nil, &domainerrors.TableNotFoundError{TableName: name}
	}
	return t, nil
}

// CreateTable appends a new empty table built from specs.
// The directory is left untouched when the name is taken or a spec is invalid.
func (db *Database) CreateTable(name string, specs []ColumnSpec) (*Table, error) {
	if _, exists := db.FindTableIndex(name); exists {
		return nil, &domainerrors.DuplicateTableError{TableName: name}
	}

	t, err := NewTable(name, specs)
	if err != nil {
		return nil, err
	}
	db.tables = append(db.tables, t)
	return t, nil
}

// AttachTable appends an already built table, as done when a document is loaded.
func (db *Database) AttachTable(t *Table) error {
	if t == nil {
		return fmt.Errorf("cannot attach nil table")
	}
	if _, exists := db.FindTableIndex(t.Name); exists {
		return &domainerrors.DuplicateTableError{TableName: t.Name}
	}
	db.tables = append(db.tables, t)
	return nil
}
