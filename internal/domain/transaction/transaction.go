package transaction

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// seqCounter is an atomic counter giving every mutation a process-wide order.
var seqCounter uint64

// ChangeType represents the kind of structural mutation
type ChangeType string

const (
	ChangeTypeCreateTable ChangeType = "CREATE_TABLE"
	ChangeTypeUpsert      ChangeType = "UPSERT"
	ChangeTypeSetCell     ChangeType = "SET_CELL"
	ChangeTypeRemoveKey   ChangeType = "REMOVE_KEY"
)

// Change describes what a mutation touched
type Change struct {
	Type     ChangeType
	Table    string
	Key      string // empty for CREATE_TABLE
	Column   string // only set for SET_CELL
	Appended bool   // UPSERT added a new key rather than replacing one
}

// Transaction is the record of one mutating call, from the in-memory
// update through the snapshot save that follows it.
// It is not an isolation unit; it exists to correlate events and logs.
type Transaction struct {
	ID        string    // unique id, shown in logs
	Seq       uint64    // mutation order within the process
	Active    bool      // whether the mutation is still in flight
	StartTime time.Time // when the mutation began
	Change    Change
}

// NewTransaction starts the record of a mutation
func NewTransaction(change Change) *Transaction {
	return &Transaction{
		ID:        uuid.New().String(),
		Seq:       atomic.AddUint64(&seqCounter, 1),
		Active:    true,
		StartTime: time.Now(),
		Change:    change,
	}
}

// Close marks the transaction as finished
func (tx *Transaction) Close() {
	tx.Active = false
}

// Elapsed returns how long the mutation has been running
func (tx *Transaction) Elapsed() time.Duration {
	return time.Since(tx.StartTime)
}
