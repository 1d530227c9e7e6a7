package executor

import (
	"fmt"

	"github.com/leengari/dbon/internal/engine"
	"github.com/leengari/dbon/internal/query"
)

// buildPredicate matches cells equal to cmd.Value, restricted to cmd.Column when set.
func buildPredicate(op Op, cmd Command) (query.Predicate, error) {
	if cmd.Value == nil {
		return nil, fmt.Errorf("%s: missing value", op)
	}
	pred := query.Equals(*cmd.Value)
	if cmd.Column != "" {
		pred = query.InColumn(cmd.Column, pred)
	}
	return pred, nil
}

func executeFind(db *engine.DB, cmd Command) (*Result, error) {
	pred, err := buildPredicate(OpFind, cmd)
	if err != nil {
		return nil, err
	}
	m, err := db.Find(cmd.Table, pred)
	if err != nil {
		return nil, err
	}
	if !m.Found {
		return &Result{Message: "No match"}, nil
	}
	return &Result{Matches: []query.Match{m}, Message: "Returned 1 match"}, nil
}

func executeFindAll(db *engine.DB, cmd Command) (*Result, error) {
	pred, err := buildPredicate(OpFindAll, cmd)
	if err != nil {
		return nil, err
	}
	matches, err := db.FindAll(cmd.Table, pred)
	if err != nil {
		return nil, err
	}
	return &Result{Matches: matches, Message: fmt.Sprintf("Returned %d matches", len(matches))}, nil
}
