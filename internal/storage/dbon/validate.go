package dbon

import (
	"fmt"

	domainerrors "github.com/leengari/dbon/internal/domain/errors"
)

// Validate reports whether raw, a value decoded by encoding/json into any,
// is a well-formed DBON document.
func Validate(raw any) bool {
	return Check(raw) == nil
}

// Check returns a *errors.SchemaError describing the first rule raw violates,
// or nil when raw is a well-formed DBON document.
func Check(raw any) error {
	doc, ok := raw.(map[string]any)
	if !ok {
		return schemaErr("", "top level must be an object")
	}
	if _, ok := doc["name"].(string); !ok {
		return schemaErr("name", "must be a string")
	}
	if _, ok := doc["numOfTables"].(float64); !ok {
		return schemaErr("numOfTables", "must be a number")
	}
	rawTables, present := doc["tables"]
	if !present {
		return schemaErr("tables", "is required")
	}
	tables, ok := rawTables.([]any)
	if !ok {
		return schemaErr("tables", "must be an array")
	}

	seen := make(map[string]bool, len(tables))
	for i, rawTable := range tables {
		path := fmt.Sprintf("tables[%d]", i)
		table, ok := rawTable.(map[string]any)
		if !ok {
			return schemaErr(path, "must be an object")
		}
		name, ok := table["name"].(string)
		if !ok {
			return schemaErr(path+".name", "must be a string")
		}
		if seen[name] {
			return schemaErr(path+".name", fmt.Sprintf("duplicate table %q", name))
		}
		seen[name] = true

		if err := checkTable(path, table); err != nil {
			return err
		}
	}
	return nil
}

func checkTable(path string, table map[string]any) error {
	cols, ok := table["cols"].([]any)
	if !ok {
		return schemaErr(path+".cols", "must be an array")
	}
	if err := checkCount(path+".numOfCols", table["numOfCols"], len(cols)); err != nil {
		return err
	}
	if err := checkStrings(path+".cols", cols, "column", false); err != nil {
		return err
	}

	keys, ok := table["keys"].([]any)
	if !ok {
		return schemaErr(path+".keys", "must be an array")
	}
	if err := checkCount(path+".numOfKeys", table["numOfKeys"], len(keys)); err != nil {
		return err
	}
	if err := checkStrings(path+".keys", keys, "key", true); err != nil {
		return err
	}

	rawValues, present := table["values"]
	if !present {
		return schemaErr(path+".values", "is required")
	}
	values, ok := rawValues.([]any)
	if !ok {
		return schemaErr(path+".values", "must be an array")
	}
	if len(values) != len(keys) {
		return schemaErr(path+".values", fmt.Sprintf("has %d rows, numOfKeys is %d", len(values), len(keys)))
	}
	for i, rawRow := range values {
		row, ok := rawRow.([]any)
		if !ok {
			return schemaErr(fmt.Sprintf("%s.values[%d]", path, i), "must be an array")
		}
		if len(row) != len(cols) {
			return schemaErr(fmt.Sprintf("%s.values[%d]", path, i),
				fmt.Sprintf("has %d cells, numOfCols is %d", len(row), len(cols)))
		}
	}

	rawRelations, present := table["relations"]
	if truthy(table["isRelational"]) || (present && rawRelations != nil) {
		return checkRelations(path+".relations", rawRelations, len(cols))
	}
	return nil
}

func checkCount(path string, raw any, want int) error {
	n, ok := raw.(float64)
	if !ok {
		return schemaErr(path, "must be a number")
	}
	if n != float64(want) {
		return schemaErr(path, fmt.Sprintf("is %v but the array has %d entries", n, want))
	}
	return nil
}

// checkStrings requires string entries without duplicates.
func checkStrings(path string, items []any, what string, allowEmpty bool) error {
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return schemaErr(fmt.Sprintf("%s[%d]", path, i), what+" must be a string")
		}
		if s == "" && !allowEmpty {
			return schemaErr(fmt.Sprintf("%s[%d]", path, i), what+" must not be empty")
		}
		if seen[s] {
			return schemaErr(fmt.Sprintf("%s[%d]", path, i), fmt.Sprintf("duplicate %s %q", what, s))
		}
		seen[s] = true
	}
	return nil
}

func checkRelations(path string, raw any, numOfCols int) error {
	relations, ok := raw.([]any)
	if !ok {
		return schemaErr(path, "must be an array")
	}
	if len(relations) != numOfCols {
		return schemaErr(path, fmt.Sprintf("has %d entries, numOfCols is %d", len(relations), numOfCols))
	}
	for i, rel := range relations {
		switch rel.(type) {
		case nil, string:
		default:
			return schemaErr(fmt.Sprintf("%s[%d]", path, i), "must be a string or null")
		}
	}
	return nil
}

// truthy follows JSON truthiness: false, 0, "" and null are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return true
}

func schemaErr(path, reason string) error {
	return &domainerrors.SchemaError{Path: path, Reason: reason}
}
