package engine

import "time"

// EventType represents the lifecycle phases of a database
type EventType string

const (
	EventOpen       EventType = "open"
	EventMutate     EventType = "mutate"
	EventSave       EventType = "save"
	EventSaveFailed EventType = "save_failed"
	EventReload     EventType = "reload"
)

// Event represents a lifecycle event of a database
type Event struct {
	Type      EventType   // Type of event
	Database  string      // Database name
	TxID      string      // Transaction ID for tracing, empty outside mutations
	Timestamp time.Time   // When the event occurred
	Data      interface{} // Phase-specific data (change, fingerprint, error)
}

// Observer interface for event subscribers.
// Observers run synchronously while the database lock is held and must not
// call back into the database.
type Observer interface {
	OnEvent(event Event)
}
