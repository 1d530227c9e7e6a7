package executor

import (
	"fmt"

	"github.com/leengari/dbon/internal/storage/manager"
)

func (s *Session) executeUse(cmd Command) (*Result, error) {
	if err := requireField(OpUse, "database", cmd.Database); err != nil {
		return nil, err
	}
	db, err := s.registry.Get(cmd.Database)
	if err != nil {
		return nil, err
	}
	s.current = db
	return &Result{Message: fmt.Sprintf("Using database %s", cmd.Database)}, nil
}

func (s *Session) executeDatabases() (*Result, error) {
	names, err := s.registry.List()
	if err != nil {
		return nil, err
	}
	return &Result{
		Names:   names,
		Message: fmt.Sprintf("%d databases", len(names)),
	}, nil
}

func (s *Session) executeCreateDatabase(cmd Command) (*Result, error) {
	if err := requireField(OpCreateDatabase, "database", cmd.Database); err != nil {
		return nil, err
	}
	db, err := s.registry.Create(cmd.Database)
	if err != nil {
		return nil, err
	}
	s.current = db
	return &Result{Message: fmt.Sprintf("Created database %s", cmd.Database)}, nil
}

// executeDropDatabase deletes a database. The session deselects it when it
// was the current one.
func (s *Session) executeDropDatabase(cmd Command) (*Result, error) {
	if err := requireField(OpDropDatabase, "database", cmd.Database); err != nil {
		return nil, err
	}
	if err := s.registry.Drop(cmd.Database); err != nil {
		return nil, err
	}
	if s.current != nil && s.current.Path() == manager.DatabasePath(s.registry.BasePath(), cmd.Database) {
		s.current = nil
	}
	return &Result{Message: fmt.Sprintf("Dropped database %s", cmd.Database)}, nil
}
