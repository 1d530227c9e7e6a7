// Package dbon is a minimal file-persisted tabular store.
//
// A database is a single JSON document (DBON) holding named tables. Each
// table declares ordered columns and stores rows addressed by string keys.
// Every mutation rewrites the whole document before it returns.
//
//	if err := dbon.Create("shop", "shop.dbon.json"); err != nil { ... }
//	db, err := dbon.Open("shop.dbon.json")
//	err = db.AddTable("items", []dbon.ColumnSpec{dbon.Column("name"), dbon.Column("price")})
//	err = db.Insert("items", "i1", map[string]dbon.Value{"name": dbon.String("pen"), "price": dbon.Int(2)})
//	m, err := db.Find("items", dbon.Equals(dbon.Int(2)))
package dbon

import (
	"github.com/leengari/dbon/internal/domain/data"
	domainerrors "github.com/leengari/dbon/internal/domain/errors"
	"github.com/leengari/dbon/internal/domain/schema"
	"github.com/leengari/dbon/internal/engine"
	"github.com/leengari/dbon/internal/query"
	document "github.com/leengari/dbon/internal/storage/dbon"
)

type (
	DB         = engine.DB
	Option     = engine.Option
	TableInfo  = engine.TableInfo
	Observer   = engine.Observer
	Event      = engine.Event
	ColumnSpec = schema.ColumnSpec
	Record     = schema.Record
	Value      = data.Value
	Row        = data.Row
	Match      = query.Match
	Predicate  = query.Predicate
)

// Error kinds; test with errors.Is.
var (
	ErrPathNotFound      = domainerrors.ErrPathNotFound
	ErrInvalidJSON       = domainerrors.ErrInvalidJSON
	ErrInvalidSchema     = domainerrors.ErrInvalidSchema
	ErrDuplicateTable    = domainerrors.ErrDuplicateTable
	ErrInvalidColumnSpec = domainerrors.ErrInvalidColumnSpec
	ErrTableNotFound     = domainerrors.ErrTableNotFound
	ErrColumnNotFound    = domainerrors.ErrColumnNotFound
	ErrKeyNotFound       = domainerrors.ErrKeyNotFound
	ErrInvalidValue      = domainerrors.ErrInvalidValue
	ErrClosed            = domainerrors.ErrClosed
	ErrIO                = domainerrors.ErrIO
)

var (
	WithLogger   = engine.WithLogger
	WithIndent   = engine.WithIndent
	WithObserver = engine.WithObserver

	Column        = schema.Column
	RelatedColumn = schema.RelatedColumn

	Null   = data.Null
	String = data.String
	Number = data.Number
	Int    = data.Int
	Bool   = data.Bool
	Array  = data.Array
	Object = data.Object

	Equals   = query.Equals
	InColumn = query.InColumn
)

// Open loads and validates the database file at path.
func Open(path string, opts ...Option) (*DB, error) {
	return engine.Open(path, opts...)
}

// Create writes a new empty database called name to path.
func Create(name, path string, opts ...Option) error {
	return engine.Create(name, path, opts...)
}

// Validate reports whether b is a well-formed DBON document.
func Validate(b []byte) error {
	raw, err := document.Parse(b)
	if err != nil {
		return err
	}
	return document.Check(raw)
}
