package executor

import (
	"fmt"

	"github.com/leengari/dbon/internal/domain/data"
	"github.com/leengari/dbon/internal/engine"
)

func executeTables(db *engine.DB) (*Result, error) {
	names := db.Tables()
	return &Result{
		Names:   names,
		Message: fmt.Sprintf("%d tables", len(names)),
	}, nil
}

// executeDescribe lists the columns of a table, with relations as the single row.
func executeDescribe(db *engine.DB, cmd Command) (*Result, error) {
	if err := requireField(OpDescribe, "table", cmd.Table); err != nil {
		return nil, err
	}
	info, err := db.Describe(cmd.Table)
	if err != nil {
		return nil, err
	}

	relations := make(data.Row, len(info.Relations))
	for i, rel := range info.Relations {
		if rel != "" {
			relations[i] = data.String(rel)
		}
	}
	return &Result{
		Columns: info.Columns,
		Keys:    []string{"relation"},
		Rows:    []data.Row{relations},
		Message: fmt.Sprintf("Table %s: %d columns, %d keys", info.Name, len(info.Columns), len(info.Keys)),
	}, nil
}

func executeRecords(db *engine.DB, cmd Command) (*Result, error) {
	if err := requireField(OpRecords, "table", cmd.Table); err != nil {
		return nil, err
	}
	info, err := db.Describe(cmd.Table)
	if err != nil {
		return nil, err
	}
	records, err := db.Records(cmd.Table)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Columns: info.Columns,
		Keys:    make([]string, len(records)),
		Rows:    make([]data.Row, len(records)),
		Message: fmt.Sprintf("Returned %d rows", len(records)),
	}
	for i, rec := range records {
		result.Keys[i] = rec.Key
		result.Rows[i] = rec.Cells
	}
	return result, nil
}

func executeAddTable(db *engine.DB, cmd Command) (*Result, error) {
	if err := requireField(OpAddTable, "table", cmd.Table); err != nil {
		return nil, err
	}
	if err := db.AddTable(cmd.Table, cmd.Columns); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("CREATE TABLE %s", cmd.Table)}, nil
}
