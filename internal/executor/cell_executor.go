package executor

import (
	"fmt"

	"github.com/leengari/dbon/internal/domain/data"
	"github.com/leengari/dbon/internal/engine"
)

func executeInsert(db *engine.DB, cmd Command) (*Result, error) {
	if err := requireField(OpInsert, "table", cmd.Table); err != nil {
		return nil, err
	}
	if err := requireField(OpInsert, "key", cmd.Key); err != nil {
		return nil, err
	}
	if err := db.Insert(cmd.Table, cmd.Key, cmd.Values); err != nil {
		return nil, err
	}
	return &Result{Message: "INSERT 1"}, nil
}

func executeSet(db *engine.DB, cmd Command) (*Result, error) {
	if err := requireField(OpSet, "column", cmd.Column); err != nil {
		return nil, err
	}
	// a missing value clears the cell
	v := data.Null()
	if cmd.Value != nil {
		v = *cmd.Value
	}
	if err := db.Set(cmd.Table, cmd.Key, cmd.Column, v); err != nil {
		return nil, err
	}
	return &Result{Message: "SET 1"}, nil
}

func executeGet(db *engine.DB, cmd Command) (*Result, error) {
	v, err := db.Get(cmd.Table, cmd.Key, cmd.Column)
	if err != nil {
		return nil, err
	}
	return &Result{Value: &v, Message: v.String()}, nil
}

func executeRemove(db *engine.DB, cmd Command) (*Result, error) {
	if err := db.RemoveKey(cmd.Table, cmd.Key); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("REMOVE %s", cmd.Key)}, nil
}
