package engine

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/leengari/dbon/internal/domain/data"
	domainerrors "github.com/leengari/dbon/internal/domain/errors"
	"github.com/leengari/dbon/internal/domain/schema"
	"github.com/leengari/dbon/internal/query"
	"github.com/leengari/dbon/internal/storage/dbon"
)

func openEmpty(t *testing.T, opts ...Option) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "d.dbon.json")
	d, err := CreateAndOpen("d", path, opts...)
	assert.NilError(t, err)
	return d
}

// fileState decodes what is currently on disk.
func fileState(t *testing.T, path string) *schema.Database {
	t.Helper()
	raw, err := os.ReadFile(path)
	assert.NilError(t, err)
	db, err := dbon.Decode(raw)
	assert.NilError(t, err)
	return db
}

func fileTable(t *testing.T, path, name string) *schema.Table {
	t.Helper()
	tbl, ok := fileState(t, path).Table(name)
	assert.Assert(t, ok, "table %q missing from file", name)
	return tbl
}

func TestConcreteLifecycle(t *testing.T) {
	d := openEmpty(t)
	path := d.Path()

	raw, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, string(raw), `{"name":"d","numOfTables":0,"tables":[]}`)

	assert.NilError(t, d.AddTable("t", []schema.ColumnSpec{schema.Column("a"), schema.Column("b")}))
	tbl := fileTable(t, path, "t")
	assert.DeepEqual(t, tbl.Columns(), []string{"a", "b"})
	assert.Equal(t, tbl.NumOfCols(), 2)
	assert.Equal(t, tbl.Len(), 0)

	assert.NilError(t, d.Insert("t", "k1", map[string]data.Value{"a": data.Int(1), "b": data.Int(2)}))
	tbl = fileTable(t, path, "t")
	assert.DeepEqual(t, tbl.Keys(), []string{"k1"})
	assert.Assert(t, tbl.Values()[0].Equal(data.Row{data.Int(1), data.Int(2)}))

	assert.NilError(t, d.Set("t", "k1", "b", data.Int(9)))
	tbl = fileTable(t, path, "t")
	assert.Assert(t, tbl.Values()[0].Equal(data.Row{data.Int(1), data.Int(9)}))

	v, err := d.Get("t", "k1", "a")
	assert.NilError(t, err)
	assert.Assert(t, v.Equal(data.Int(1)))

	assert.NilError(t, d.RemoveKey("t", "k1"))
	tbl = fileTable(t, path, "t")
	assert.Equal(t, tbl.Len(), 0)

	_, err = d.Get("t", "k1", "a")
	assert.Assert(t, errors.Is(err, domainerrors.ErrKeyNotFound))
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "missing.json"))
		assert.Assert(t, errors.Is(err, domainerrors.ErrPathNotFound))
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		assert.NilError(t, os.WriteFile(path, []byte(`{"name":`), 0o644))
		_, err := Open(path)
		assert.Assert(t, errors.Is(err, domainerrors.ErrInvalidJSON))
	})

	t.Run("not dbon", func(t *testing.T) {
		path := filepath.Join(dir, "shape.json")
		assert.NilError(t, os.WriteFile(path, []byte(`{"name":"d","tables":{}}`), 0o644))
		_, err := Open(path)
		assert.Assert(t, errors.Is(err, domainerrors.ErrInvalidSchema))
	})
}

func TestCreateRefusesExistingFile(t *testing.T) {
	d := openEmpty(t)
	err := Create("other", d.Path())
	assert.Assert(t, errors.Is(err, domainerrors.ErrIO))
	assert.Equal(t, fileState(t, d.Path()).Name, "d")
}

func TestAddTableErrors(t *testing.T) {
	d := openEmpty(t)
	assert.NilError(t, d.AddTable("t", []schema.ColumnSpec{schema.Column("a")}))

	err := d.AddTable("t", []schema.ColumnSpec{schema.Column("b")})
	assert.Assert(t, errors.Is(err, domainerrors.ErrDuplicateTable))

	err = d.AddTable("u", []schema.ColumnSpec{schema.Column("a"), schema.Column("a")})
	assert.Assert(t, errors.Is(err, domainerrors.ErrInvalidColumnSpec))

	err = d.AddTable("v", []schema.ColumnSpec{{}})
	assert.Assert(t, errors.Is(err, domainerrors.ErrInvalidColumnSpec))

	// failed creations leave nothing behind, in memory or on disk
	assert.DeepEqual(t, d.Tables(), []string{"t"})
	assert.DeepEqual(t, fileState(t, d.Path()).TableNames(), []string{"t"})
}

func TestRelationalTablePersists(t *testing.T) {
	d := openEmpty(t)
	assert.NilError(t, d.AddTable("t", []schema.ColumnSpec{schema.Column("a"), schema.RelatedColumn("b", "other")}))

	info, err := d.Describe("t")
	assert.NilError(t, err)
	assert.Assert(t, info.IsRelational)
	assert.DeepEqual(t, info.Relations, []string{"", "other"})

	reopened, err := Open(d.Path())
	assert.NilError(t, err)
	info, err = reopened.Describe("t")
	assert.NilError(t, err)
	assert.DeepEqual(t, info.Relations, []string{"", "other"})
}

func TestMissingTableColumnKey(t *testing.T) {
	d := openEmpty(t)
	assert.NilError(t, d.AddTable("t", []schema.ColumnSpec{schema.Column("a")}))
	assert.NilError(t, d.Insert("t", "k", map[string]data.Value{"a": data.String("x")}))

	testCases := []struct {
		name string
		op   func() error
		want error
	}{
		{"insert unknown table", func() error { return d.Insert("nope", "k", nil) }, domainerrors.ErrTableNotFound},
		{"set unknown column", func() error { return d.Set("t", "k", "zz", data.Null()) }, domainerrors.ErrColumnNotFound},
		{"set unknown key", func() error { return d.Set("t", "zz", "a", data.Null()) }, domainerrors.ErrKeyNotFound},
		{"get unknown table", func() error { _, err := d.Get("nope", "k", "a"); return err }, domainerrors.ErrTableNotFound},
		{"get unknown column", func() error { _, err := d.Get("t", "k", "zz"); return err }, domainerrors.ErrColumnNotFound},
		{"remove unknown key", func() error { return d.RemoveKey("t", "zz") }, domainerrors.ErrKeyNotFound},
		{"find unknown table", func() error { _, err := d.Find("nope", query.Any); return err }, domainerrors.ErrTableNotFound},
		{"find all unknown table", func() error { _, err := d.FindAll("nope", query.Any); return err }, domainerrors.ErrTableNotFound},
		{"describe unknown table", func() error { _, err := d.Describe("nope"); return err }, domainerrors.ErrTableNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.op()
			assert.Assert(t, errors.Is(err, tc.want), "got %v", err)
		})
	}

	v, err := d.Get("t", "k", "a")
	assert.NilError(t, err)
	assert.Assert(t, v.Equal(data.String("x")))
}

func TestInsertReplacesWholeRow(t *testing.T) {
	d := openEmpty(t)
	assert.NilError(t, d.AddTable("t", []schema.ColumnSpec{schema.Column("a"), schema.Column("b")}))
	assert.NilError(t, d.Insert("t", "k", map[string]data.Value{"a": data.Int(1), "b": data.Int(2)}))
	assert.NilError(t, d.Insert("t", "k", map[string]data.Value{"b": data.Int(3), "ghost": data.Int(4)}))

	records, err := d.Records("t")
	assert.NilError(t, err)
	assert.Equal(t, len(records), 1)
	assert.Assert(t, records[0].Cells.Equal(data.Row{data.Null(), data.Int(3)}))
}

func TestFindAndFindAll(t *testing.T) {
	d := openEmpty(t)
	assert.NilError(t, d.AddTable("t", []schema.ColumnSpec{schema.Column("a"), schema.Column("b")}))
	assert.NilError(t, d.Insert("t", "k1", map[string]data.Value{"a": data.Int(1), "b": data.Int(2)}))
	assert.NilError(t, d.Insert("t", "k2", map[string]data.Value{"a": data.Int(2), "b": data.Int(1)}))

	m, err := d.Find("t", query.Equals(data.Int(2)))
	assert.NilError(t, err)
	assert.Assert(t, m.Found)
	assert.Assert(t, m.Value.Equal(data.Int(2)))
	assert.Equal(t, m.Key, "k1")
	assert.Equal(t, m.Column, "b")
	assert.Equal(t, m.Counter, 1)

	all, err := d.FindAll("t", query.Equals(data.Int(2)))
	assert.NilError(t, err)
	assert.Equal(t, len(all), 2)
	assert.Equal(t, all[1].Key, "k2")
	assert.Equal(t, all[1].Counter, 2)

	none, err := d.Find("t", query.Equals(data.String("x")))
	assert.NilError(t, err)
	assert.Assert(t, !none.Found)

	empty, err := d.FindAll("t", query.Equals(data.String("x")))
	assert.NilError(t, err)
	assert.Assert(t, empty != nil)
	assert.Check(t, is.Len(empty, 0))

	none, err = d.Find("t", nil)
	assert.NilError(t, err)
	assert.Assert(t, !none.Found)
}

func TestRoundTripThroughFile(t *testing.T) {
	d := openEmpty(t)
	assert.NilError(t, d.AddTable("t", []schema.ColumnSpec{schema.Column("a"), schema.RelatedColumn("b", "u")}))
	assert.NilError(t, d.Insert("t", "k1", map[string]data.Value{
		"a": data.String("x"),
		"b": data.Array(data.Bool(true), data.Null()),
	}))
	assert.NilError(t, d.Insert("t", "k2", map[string]data.Value{"b": data.Number(1.5)}))

	before, err := d.Snapshot()
	assert.NilError(t, err)

	reopened, err := Open(d.Path())
	assert.NilError(t, err)
	after, err := reopened.Snapshot()
	assert.NilError(t, err)

	assert.Equal(t, string(after), string(before))
	assert.Equal(t, reopened.LastFingerprint(), d.LastFingerprint())
}

func TestSaveFailureKeepsMutationAndMarksDirty(t *testing.T) {
	observer := &MockObserver{}
	d := openEmpty(t, WithObserver(observer))
	path := d.Path()

	// a non-empty directory at the file path makes the rename fail
	assert.NilError(t, os.Remove(path))
	assert.NilError(t, os.MkdirAll(filepath.Join(path, "occupied"), 0o755))

	err := d.AddTable("t", []schema.ColumnSpec{schema.Column("a")})
	assert.Assert(t, errors.Is(err, domainerrors.ErrIO), "got %v", err)
	assert.Assert(t, d.Dirty())
	assert.DeepEqual(t, d.Tables(), []string{"t"})

	last := observer.Events[len(observer.Events)-1]
	assert.Equal(t, last.Type, EventSaveFailed)

	assert.NilError(t, os.RemoveAll(path))
	assert.NilError(t, d.Flush())
	assert.Assert(t, !d.Dirty())
	assert.DeepEqual(t, fileState(t, path).TableNames(), []string{"t"})
}

func TestNonFiniteNumberIsRejectedBeforeMutation(t *testing.T) {
	d := openEmpty(t)
	assert.NilError(t, d.AddTable("t", []schema.ColumnSpec{schema.Column("a")}))

	err := d.Insert("t", "bad", map[string]data.Value{"a": data.Number(math.NaN())})
	assert.Assert(t, errors.Is(err, domainerrors.ErrInvalidValue))
	assert.Assert(t, !errors.Is(err, domainerrors.ErrIO))
	assert.Assert(t, !d.Dirty())

	info, err := d.Describe("t")
	assert.NilError(t, err)
	assert.Equal(t, len(info.Keys), 0)

	// later mutations still reach the file
	assert.NilError(t, d.Insert("t", "good", map[string]data.Value{"a": data.Int(1)}))
	err = d.Set("t", "good", "a", data.Array(data.Number(math.Inf(1))))
	assert.Assert(t, errors.Is(err, domainerrors.ErrInvalidValue))
	assert.NilError(t, d.AddTable("u", nil))

	assert.Assert(t, !d.Dirty())
	assert.DeepEqual(t, fileTable(t, d.Path(), "t").Keys(), []string{"good"})
	v, err := fileTable(t, d.Path(), "t").GetCell("good", "a")
	assert.NilError(t, err)
	assert.Assert(t, v.Equal(data.Int(1)))
	assert.DeepEqual(t, fileState(t, d.Path()).TableNames(), []string{"t", "u"})
}

func TestClosedHandleRejectsCalls(t *testing.T) {
	d := openEmpty(t)
	assert.NilError(t, d.AddTable("t", []schema.ColumnSpec{schema.Column("a")}))
	assert.NilError(t, d.Close())
	assert.NilError(t, d.Close())

	assert.NilError(t, os.Remove(d.Path()))

	discard := func(_ any, err error) error { return err }
	calls := map[string]func() error{
		"AddTable":  func() error { return d.AddTable("u", nil) },
		"Insert":    func() error { return d.Insert("t", "k", nil) },
		"Set":       func() error { return d.Set("t", "k", "a", data.Int(1)) },
		"Get":       func() error { return discard(d.Get("t", "k", "a")) },
		"RemoveKey": func() error { return d.RemoveKey("t", "k") },
		"Describe":  func() error { return discard(d.Describe("t")) },
		"Records":   func() error { return discard(d.Records("t")) },
		"Find":      func() error { return discard(d.Find("t", query.Any)) },
		"FindAll":   func() error { return discard(d.FindAll("t", query.Any)) },
		"Snapshot":  func() error { return discard(d.Snapshot()) },
		"Flush":     d.Flush,
		"Reload":    func() error { return discard(d.Reload()) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.Assert(t, errors.Is(call(), domainerrors.ErrClosed))
		})
	}

	assert.Assert(t, d.Tables() == nil)
	_, err := os.Stat(d.Path())
	assert.Assert(t, os.IsNotExist(err), "closed handle must not recreate its file")
}

func TestReload(t *testing.T) {
	d := openEmpty(t)

	changed, err := d.Reload()
	assert.NilError(t, err)
	assert.Assert(t, !changed, "own snapshot must not count as a change")

	other, err := Open(d.Path())
	assert.NilError(t, err)
	assert.NilError(t, other.AddTable("t", nil))

	changed, err = d.Reload()
	assert.NilError(t, err)
	assert.Assert(t, changed)
	assert.DeepEqual(t, d.Tables(), []string{"t"})

	assert.NilError(t, os.WriteFile(d.Path(), []byte(`not json`), 0o644))
	_, err = d.Reload()
	assert.Assert(t, errors.Is(err, domainerrors.ErrInvalidJSON))
	assert.DeepEqual(t, d.Tables(), []string{"t"})
}

func TestIndentedSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.json")
	d, err := CreateAndOpen("d", path, WithIndent(true))
	assert.NilError(t, err)
	assert.NilError(t, d.AddTable("t", nil))

	raw, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(string(raw), "\n  \"tables\""))
}

func TestConcurrentInsertsAreAllPersisted(t *testing.T) {
	d := openEmpty(t)
	assert.NilError(t, d.AddTable("t", []schema.ColumnSpec{schema.Column("n")}))

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n))
			errs <- d.Insert("t", key, map[string]data.Value{"n": data.Int(int64(n))})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NilError(t, err)
	}

	// the last save happened after the last mutation, so the file has everything
	assert.Equal(t, fileTable(t, d.Path(), "t").Len(), workers)
}
