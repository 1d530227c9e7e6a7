// Package executor turns Commands from the REPL or the network server into
// calls on the selected database.
package executor

import (
	"errors"
	"fmt"

	"github.com/leengari/dbon/internal/domain/data"
	"github.com/leengari/dbon/internal/domain/schema"
	"github.com/leengari/dbon/internal/engine"
	"github.com/leengari/dbon/internal/query"
	"github.com/leengari/dbon/internal/storage/manager"
)

// Op names a command.
type Op string

const (
	OpUse            Op = "use"
	OpDatabases      Op = "databases"
	OpCreateDatabase Op = "create_database"
	OpDropDatabase   Op = "drop_database"
	OpTables         Op = "tables"
	OpDescribe       Op = "describe"
	OpRecords        Op = "records"
	OpAddTable       Op = "add_table"
	OpInsert         Op = "insert"
	OpSet            Op = "set"
	OpGet            Op = "get"
	OpRemove         Op = "remove"
	OpFind           Op = "find"
	OpFindAll        Op = "find_all"
)

// ErrNoDatabase is returned by table commands before a database is selected.
var ErrNoDatabase = errors.New("no database selected (use <name>)")

// Command is one request against the store.
type Command struct {
	Op       Op                    `json:"op"`
	Database string                `json:"database,omitempty"`
	Table    string                `json:"table,omitempty"`
	Key      string                `json:"key,omitempty"`
	Column   string                `json:"column,omitempty"`
	Value    *data.Value           `json:"value,omitempty"`
	Values   map[string]data.Value `json:"values,omitempty"`
	Columns  []schema.ColumnSpec   `json:"columns,omitempty"`
}

// Result is the outcome of a Command.
type Result struct {
	Message string        `json:"message,omitempty"`
	Names   []string      `json:"names,omitempty"`   // databases or tables
	Columns []string      `json:"columns,omitempty"` // header for Rows
	Keys    []string      `json:"keys,omitempty"`    // one per row
	Rows    []data.Row    `json:"rows,omitempty"`
	Value   *data.Value   `json:"value,omitempty"`
	Matches []query.Match `json:"matches,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Session executes Commands for one client. It remembers the selected
// database between commands; it is not safe for concurrent use.
type Session struct {
	registry *manager.Registry
	current  *engine.DB
}

// NewSession creates a session with no database selected.
func NewSession(registry *manager.Registry) *Session {
	return &Session{registry: registry}
}

// Current returns the selected database name, or "" when none is.
func (s *Session) Current() string {
	if s.current == nil {
		return ""
	}
	return s.current.Name()
}

// Execute runs cmd.
func (s *Session) Execute(cmd Command) (*Result, error) {
	switch cmd.Op {
	case OpUse:
		return s.executeUse(cmd)
	case OpDatabases:
		return s.executeDatabases()
	case OpCreateDatabase:
		return s.executeCreateDatabase(cmd)
	case OpDropDatabase:
		return s.executeDropDatabase(cmd)
	}

	if cmd.Database != "" {
		if _, err := s.executeUse(cmd); err != nil {
			return nil, err
		}
	}
	if s.current == nil {
		return nil, ErrNoDatabase
	}

	switch cmd.Op {
	case OpTables:
		return executeTables(s.current)
	case OpDescribe:
		return executeDescribe(s.current, cmd)
	case OpRecords:
		return executeRecords(s.current, cmd)
	case OpAddTable:
		return executeAddTable(s.current, cmd)
	case OpInsert:
		return executeInsert(s.current, cmd)
	case OpSet:
		return executeSet(s.current, cmd)
	case OpGet:
		return executeGet(s.current, cmd)
	case OpRemove:
		return executeRemove(s.current, cmd)
	case OpFind:
		return executeFind(s.current, cmd)
	case OpFindAll:
		return executeFindAll(s.current, cmd)
	default:
		return nil, fmt.Errorf("unsupported command: %q", cmd.Op)
	}
}

// ExecuteResult runs cmd and folds any error into the Result.
func (s *Session) ExecuteResult(cmd Command) *Result {
	result, err := s.Execute(cmd)
	if err != nil {
		return &Result{Error: err.Error()}
	}
	return result
}

func requireField(op Op, name, value string) error {
	if value == "" {
		return fmt.Errorf("%s: missing %s", op, name)
	}
	return nil
}
