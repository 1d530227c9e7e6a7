package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"gotest.tools/v3/assert"
)

func TestTypedErrorsMatchTheirKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"table", &TableNotFoundError{TableName: "users"}, ErrTableNotFound},
		{"column", &ColumnNotFoundError{TableName: "users", ColumnName: "age"}, ErrColumnNotFound},
		{"key", &KeyNotFoundError{TableName: "users", Key: "k1"}, ErrKeyNotFound},
		{"duplicate", &DuplicateTableError{TableName: "users"}, ErrDuplicateTable},
		{"column spec", &InvalidColumnSpecError{TableName: "users", Position: 1, Reason: "missing name"}, ErrInvalidColumnSpec},
		{"value", &InvalidValueError{TableName: "users", ColumnName: "age", Reason: "non-finite number NaN"}, ErrInvalidValue},
		{"schema", &SchemaError{Path: "tables[0].cols", Reason: "must be an array"}, ErrInvalidSchema},
		{"io", &IOError{Op: "write", Path: "/tmp/x", Err: fs.ErrPermission}, ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("operation failed: %w", tt.err)
			assert.Assert(t, stderrors.Is(wrapped, tt.kind))
			assert.Assert(t, !stderrors.Is(wrapped, ErrPathNotFound))
		})
	}
}

func TestIOErrorUnwrapsCause(t *testing.T) {
	err := &IOError{Op: "rename", Path: "db.json", Err: fs.ErrPermission}
	assert.Assert(t, stderrors.Is(err, fs.ErrPermission))
	assert.Equal(t, err.Error(), "rename db.json: permission denied")
}

func TestSchemaErrorMessage(t *testing.T) {
	assert.Equal(t, (&SchemaError{Reason: "top level must be an object"}).Error(),
		"invalid dbon: top level must be an object")
	assert.Equal(t, (&SchemaError{Path: "name", Reason: "must be a string"}).Error(),
		"invalid dbon at name: must be a string")
}
