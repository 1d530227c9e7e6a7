// Package query implements predicate search over a table's cells.
//
// Cells are visited key-major, column-minor: every column of the first
// stored key, then every column of the second, and so on. The counter passed
// to the predicate is the 0-based position of the cell in that order, so two
// scans of an unchanged table see identical (value, key, column, counter)
// tuples.
package query

import (
	"github.com/leengari/dbon/internal/domain/data"
	"github.com/leengari/dbon/internal/domain/schema"
)

// Predicate decides whether a visited cell is a match.
// It runs synchronously and must not mutate the table being scanned.
type Predicate func(value data.Value, key, column string, counter int) bool

// Match is one cell accepted by a predicate.
// The zero Match (Found == false) is the "no match" result of Find.
type Match struct {
	Value   data.Value `json:"value"`
	Key     string     `json:"key"`
	Column  string     `json:"column"`
	Counter int        `json:"counter"`
	Found   bool       `json:"found"`
}

// Find returns the first cell accepted by pred. A nil pred accepts nothing.
func Find(t *schema.Table, pred Predicate) Match {
	var result Match
	if pred == nil {
		return result
	}
	counter := 0
	t.Scan(func(key, column string, v data.Value) bool {
		if pred(v, key, column, counter) {
			result = Match{Value: v, Key: key, Column: column, Counter: counter, Found: true}
			return false
		}
		counter++
		return true
	})
	return result
}

// FindAll returns every cell accepted by pred, in visitation order.
// The result is empty, never nil, when nothing matches or pred is nil.
func FindAll(t *schema.Table, pred Predicate) []Match {
	matches := []Match{}
	if pred == nil {
		return matches
	}
	counter := 0
	t.Scan(func(key, column string, v data.Value) bool {
		if pred(v, key, column, counter) {
			matches = append(matches, Match{Value: v, Key: key, Column: column, Counter: counter, Found: true})
		}
		counter++
		return true
	})
	return matches
}

// Equals matches cells equal to want.
func Equals(want data.Value) Predicate {
	return func(v data.Value, _, _ string, _ int) bool {
		return v.Equal(want)
	}
}

// InColumn restricts pred to cells of one column. A nil pred stays nil.
func InColumn(column string, pred Predicate) Predicate {
	if pred == nil {
		return nil
	}
	return func(v data.Value, key, col string, counter int) bool {
		return col == column && pred(v, key, col, counter)
	}
}

// Any matches every cell.
func Any(data.Value, string, string, int) bool { return true }
