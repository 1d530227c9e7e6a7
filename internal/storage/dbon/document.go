// Package dbon converts between DBON documents and the in-memory schema.
//
// A DBON document is a JSON object:
//
//	{
//	  "name": "shop",
//	  "numOfTables": 1,
//	  "tables": [{
//	    "name": "users",
//	    "cols": ["name", "org"], "numOfCols": 2,
//	    "keys": ["u1"], "numOfKeys": 1,
//	    "values": [["ann", "acme"]],
//	    "isRelational": true,
//	    "relations": [null, "orgs"]
//	  }]
//	}
//
// The counters (numOfTables, numOfCols, numOfKeys) and isRelational are
// derived from the sequences on encode; on decode they are only checked.
package dbon

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/leengari/dbon/internal/domain/data"
	domainerrors "github.com/leengari/dbon/internal/domain/errors"
	"github.com/leengari/dbon/internal/domain/schema"
)

// Document is the wire form of a database.
type Document struct {
	Name        string          `json:"name" jsonschema:"description=Database name"`
	NumOfTables int             `json:"numOfTables" jsonschema:"description=Number of entries in tables,minimum=0"`
	Tables      []TableDocument `json:"tables"`
}

// TableDocument is the wire form of a table.
type TableDocument struct {
	Name         string     `json:"name"`
	Cols         []string   `json:"cols" jsonschema:"description=Declared column names in order"`
	NumOfCols    int        `json:"numOfCols" jsonschema:"minimum=0"`
	Keys         []string   `json:"keys" jsonschema:"description=Row keys aligned with values"`
	NumOfKeys    int        `json:"numOfKeys" jsonschema:"minimum=0"`
	Values       []data.Row `json:"values" jsonschema:"description=One row per key; each row has numOfCols cells"`
	IsRelational bool       `json:"isRelational"`
	Relations    []*string  `json:"relations" jsonschema:"description=Target table per column or null"`
}

// Parse decodes b into the generic form the validator works on.
func Parse(b []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domainerrors.ErrInvalidJSON, err)
	}
	return raw, nil
}

// Decode parses and validates b and materializes the database it describes.
// Errors match ErrInvalidJSON or ErrInvalidSchema.
func Decode(b []byte) (*schema.Database, error) {
	raw, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if err := Check(raw); err != nil {
		return nil, err
	}
	return FromRaw(raw)
}

// FromRaw builds a database from a value Check has accepted.
func FromRaw(raw any) (*schema.Database, error) {
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, schemaErr("", "top level must be an object")
	}
	name, _ := doc["name"].(string)
	db := schema.NewDatabase(name)

	tables, _ := doc["tables"].([]any)
	for i, rawTable := range tables {
		path := fmt.Sprintf("tables[%d]", i)
		tableDoc, _ := rawTable.(map[string]any)

		t, err := tableFromRaw(tableDoc)
		if err != nil {
			return nil, schemaErr(path, err.Error())
		}
		if err := db.AttachTable(t); err != nil {
			return nil, schemaErr(path, err.Error())
		}
	}
	return db, nil
}

func tableFromRaw(doc map[string]any) (*schema.Table, error) {
	name, _ := doc["name"].(string)
	columns, err := stringsFromRaw(doc["cols"])
	if err != nil {
		return nil, fmt.Errorf("cols: %w", err)
	}
	keys, err := stringsFromRaw(doc["keys"])
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}

	var relations []string
	if rawRelations, ok := doc["relations"].([]any); ok {
		relations = make([]string, len(rawRelations))
		for i, rel := range rawRelations {
			relations[i], _ = rel.(string)
		}
	}

	rawValues, _ := doc["values"].([]any)
	values := make([]data.Row, len(rawValues))
	for i, rawRow := range rawValues {
		cells, _ := rawRow.([]any)
		row := data.NewRow(len(cells))
		for j, cell := range cells {
			v, err := data.FromAny(cell)
			if err != nil {
				return nil, fmt.Errorf("values[%d][%d]: %w", i, j, err)
			}
			row[j] = v
		}
		values[i] = row
	}

	return schema.RestoreTable(name, columns, relations, keys, values)
}

func stringsFromRaw(raw any) ([]string, error) {
	items, _ := raw.([]any)
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("entry %d is not a string", i)
		}
		out[i] = s
	}
	return out, nil
}

// FromDatabase builds the wire form of db. Counters and isRelational are
// computed here, so they can never drift from the sequences they describe.
func FromDatabase(db *schema.Database) Document {
	tables := db.Tables()
	doc := Document{
		Name:        db.Name,
		NumOfTables: len(tables),
		Tables:      make([]TableDocument, len(tables)),
	}
	for i, t := range tables {
		relations := make([]*string, t.NumOfCols())
		for j, rel := range t.Relations() {
			if rel != "" {
				relations[j] = &rel
			}
		}
		keys := t.Keys()
		doc.Tables[i] = TableDocument{
			Name:         t.Name,
			Cols:         t.Columns(),
			NumOfCols:    t.NumOfCols(),
			Keys:         keys,
			NumOfKeys:    len(keys),
			Values:       t.Values(),
			IsRelational: t.IsRelational(),
			Relations:    relations,
		}
	}
	return doc
}

// Encode renders db as DBON text. indent pretty-prints with two spaces.
func Encode(db *schema.Database, indent bool) ([]byte, error) {
	doc := FromDatabase(db)
	var (
		b   []byte
		err error
	)
	if indent {
		b, err = json.MarshalIndent(doc, "", "  ")
	} else {
		b, err = json.Marshal(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal database %s: %w", db.Name, err)
	}
	return b, nil
}

// Empty returns the document of a database with no tables.
func Empty(name string, indent bool) ([]byte, error) {
	return Encode(schema.NewDatabase(name), indent)
}

// Compact strips insignificant whitespace, so documents can be compared
// regardless of how they were indented.
func Compact(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return nil, fmt.Errorf("%w: %w", domainerrors.ErrInvalidJSON, err)
	}
	return buf.Bytes(), nil
}
