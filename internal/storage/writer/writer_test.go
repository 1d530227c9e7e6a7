package writer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"

	domainerrors "github.com/leengari/dbon/internal/domain/errors"
)

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "db.json")

	sum, err := Save(path, []byte(`{"a":1}`))
	assert.NilError(t, err)
	assert.Equal(t, sum, Sum([]byte(`{"a":1}`)))

	data, err := Load(path)
	assert.NilError(t, err)
	assert.Equal(t, string(data), `{"a":1}`)

	_, err = os.Stat(path + ".tmp")
	assert.Assert(t, errors.Is(err, fs.ErrNotExist), "temp file left behind")
}

func TestSaveOverwritesWholeSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	_, err := Save(path, []byte(`{"long":"xxxxxxxxxxxxxxxx"}`))
	assert.NilError(t, err)
	_, err = Save(path, []byte(`{}`))
	assert.NilError(t, err)

	data, err := Load(path)
	assert.NilError(t, err)
	assert.Equal(t, string(data), `{}`)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Assert(t, errors.Is(err, domainerrors.ErrPathNotFound))
}

func TestSaveFailureIsIOError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	assert.NilError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// a regular file cannot be used as a parent directory
	_, err := Save(filepath.Join(blocker, "db.json"), []byte(`{}`))
	assert.Assert(t, errors.Is(err, domainerrors.ErrIO))

	_, err = Save("", []byte(`{}`))
	assert.Assert(t, errors.Is(err, domainerrors.ErrIO))
}

func TestCreateNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	_, err := CreateNew(path, []byte(`{}`))
	assert.NilError(t, err)

	_, err = CreateNew(path, []byte(`{"b":2}`))
	assert.Assert(t, errors.Is(err, domainerrors.ErrIO))
	assert.Assert(t, errors.Is(err, fs.ErrExist))

	data, err := Load(path)
	assert.NilError(t, err)
	assert.Equal(t, string(data), `{}`)
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	_, err := Save(path, []byte(`{}`))
	assert.NilError(t, err)

	assert.NilError(t, Remove(path))
	assert.Assert(t, errors.Is(Remove(path), domainerrors.ErrPathNotFound))
}

func TestFingerprintChangesWithContent(t *testing.T) {
	assert.Assert(t, Sum([]byte("a")) != Sum([]byte("b")))
	assert.Equal(t, len(Sum([]byte("a")).String()), 16)
}
