// Package errors defines the error kinds surfaced by the DBON store.
//
// Every failure carries one of the sentinel kinds below. Typed errors add
// context (table, column, key, JSON path) and report their kind through Is,
// so callers only ever need errors.Is(err, ErrKeyNotFound) and friends.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Sentinel error kinds.
var (
	// ErrPathNotFound is returned when the backing file does not exist.
	ErrPathNotFound = stderrors.New("path not found")

	// ErrInvalidJSON is returned when the backing file is not well-formed JSON.
	ErrInvalidJSON = stderrors.New("invalid json")

	// ErrInvalidSchema is returned when the document is JSON but not DBON.
	ErrInvalidSchema = stderrors.New("invalid dbon schema")

	ErrDuplicateTable    = stderrors.New("duplicate table")
	ErrInvalidColumnSpec = stderrors.New("invalid column spec")
	ErrTableNotFound     = stderrors.New("table not found")
	ErrColumnNotFound    = stderrors.New("column not found")
	ErrKeyNotFound       = stderrors.New("key not found")

	// ErrInvalidValue is returned when a cell cannot be represented in DBON,
	// such as a NaN or infinite number.
	ErrInvalidValue = stderrors.New("invalid value")

	// ErrClosed is returned by every method of a database handle after Close.
	ErrClosed = stderrors.New("database closed")

	// ErrDuplicateDatabase is returned by the registry when a database name is taken.
	ErrDuplicateDatabase = stderrors.New("duplicate database")

	// ErrIO is returned when the persistence layer fails to read or write.
	ErrIO = stderrors.New("i/o error")
)

type TableNotFoundError struct {
	TableName string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %q does not exist", e.TableName)
}

func (e *TableNotFoundError) Is(target error) bool { return target == ErrTableNotFound }

type ColumnNotFoundError struct {
	TableName  string
	ColumnName string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q does not exist in table %q", e.ColumnName, e.TableName)
}

func (e *ColumnNotFoundError) Is(target error) bool { return target == ErrColumnNotFound }

type KeyNotFoundError struct {
	TableName string
	Key       string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %q does not exist in table %q", e.Key, e.TableName)
}

func (e *KeyNotFoundError) Is(target error) bool { return target == ErrKeyNotFound }

type DuplicateTableError struct {
	TableName string
}

func (e *DuplicateTableError) Error() string {
	return fmt.Sprintf("table %q already exists", e.TableName)
}

func (e *DuplicateTableError) Is(target error) bool { return target == ErrDuplicateTable }

// InvalidColumnSpecError describes a rejected column in a table definition.
type InvalidColumnSpecError struct {
	TableName string
	Position  int    // 0-based position of the offending spec
	Reason    string // "missing name", "duplicate column \"x\""
}

func (e *InvalidColumnSpecError) Error() string {
	return fmt.Sprintf("invalid column spec #%d for table %q: %s", e.Position, e.TableName, e.Reason)
}

func (e *InvalidColumnSpecError) Is(target error) bool { return target == ErrInvalidColumnSpec }

// InvalidValueError describes a cell rejected before it reached the table.
type InvalidValueError struct {
	TableName  string
	ColumnName string
	Reason     string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for column %q in table %q: %s", e.ColumnName, e.TableName, e.Reason)
}

func (e *InvalidValueError) Is(target error) bool { return target == ErrInvalidValue }

// SchemaError reports the first DBON rule a document violates.
type SchemaError struct {
	Path   string // location inside the document, e.g. "tables[2].numOfCols"
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid dbon: %s", e.Reason)
	}
	return fmt.Sprintf("invalid dbon at %s: %s", e.Path, e.Reason)
}

func (e *SchemaError) Is(target error) bool { return target == ErrInvalidSchema }

// IOError wraps a failure of the persistence layer.
type IOError struct {
	Op   string // "read", "write", "sync", "rename", "mkdir"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Is(target error) bool { return target == ErrIO }

func (e *IOError) Unwrap() error { return e.Err }
