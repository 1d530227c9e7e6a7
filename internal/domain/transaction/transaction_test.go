package transaction

import (
	"testing"

	"github.com/google/uuid"
	"gotest.tools/v3/assert"
)

func TestNewTransaction(t *testing.T) {
	first := NewTransaction(Change{Type: ChangeTypeCreateTable, Table: "users"})
	second := NewTransaction(Change{Type: ChangeTypeUpsert, Table: "users", Key: "k1"})

	_, err := uuid.Parse(first.ID)
	assert.NilError(t, err)
	assert.Assert(t, first.ID != second.ID)
	assert.Assert(t, second.Seq > first.Seq)
	assert.Assert(t, first.Active)
	assert.Equal(t, second.Change.Key, "k1")
}

func TestClose(t *testing.T) {
	tx := NewTransaction(Change{Type: ChangeTypeRemoveKey, Table: "users", Key: "k1"})
	tx.Close()
	assert.Assert(t, !tx.Active)
	assert.Assert(t, tx.Elapsed() >= 0)
}
