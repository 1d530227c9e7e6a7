package schema

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"

	domainerrors "github.com/leengari/dbon/internal/domain/errors"
)

func TestCreateTable(t *testing.T) {
	db := NewDatabase("d")

	table, err := db.CreateTable("t", []ColumnSpec{Column("a"), Column("b")})
	assert.NilError(t, err)
	assert.DeepEqual(t, table.Columns(), []string{"a", "b"})
	assert.Equal(t, table.NumOfCols(), 2)
	assert.Equal(t, db.NumOfTables(), 1)

	pos, ok := db.FindTableIndex("t")
	assert.Assert(t, ok)
	assert.Equal(t, pos, 0)
}

func TestCreateTableRejectsDuplicateName(t *testing.T) {
	db := NewDatabase("d")
	_, err := db.CreateTable("t", []ColumnSpec{Column("a")})
	assert.NilError(t, err)

	_, err = db.CreateTable("t", []ColumnSpec{Column("x"), Column("y")})
	assert.Assert(t, errors.Is(err, domainerrors.ErrDuplicateTable))

	// directory unchanged
	assert.Equal(t, db.NumOfTables(), 1)
	table, ok := db.Table("t")
	assert.Assert(t, ok)
	assert.DeepEqual(t, table.Columns(), []string{"a"})
}

func TestCreateTableWithInvalidSpecLeavesDirectoryUnchanged(t *testing.T) {
	db := NewDatabase("d")
	_, err := db.CreateTable("t", []ColumnSpec{{Relation: "x"}})
	assert.Assert(t, errors.Is(err, domainerrors.ErrInvalidColumnSpec))
	assert.Equal(t, db.NumOfTables(), 0)
}

func TestFindTableIndexPreservesOrder(t *testing.T) {
	db := NewDatabase("d")
	for _, name := range []string{"first", "second", "third"} {
		_, err := db.CreateTable(name, nil)
		assert.NilError(t, err)
	}

	assert.DeepEqual(t, db.TableNames(), []string{"first", "second", "third"})
	pos, ok := db.FindTableIndex("third")
	assert.Assert(t, ok)
	assert.Equal(t, pos, 2)

	_, ok = db.FindTableIndex("missing")
	assert.Assert(t, !ok)

	_, err := db.LookupTable("missing")
	assert.Assert(t, errors.Is(err, domainerrors.ErrTableNotFound))
}

func TestAttachTable(t *testing.T) {
	db := NewDatabase("d")
	table, err := NewTable("t", nil)
	assert.NilError(t, err)

	assert.NilError(t, db.AttachTable(table))
	err = db.AttachTable(table)
	assert.Assert(t, errors.Is(err, domainerrors.ErrDuplicateTable))
	assert.ErrorContains(t, db.AttachTable(nil), "nil table")
}
