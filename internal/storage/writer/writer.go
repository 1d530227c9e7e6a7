// Package writer is the persistence gateway: it loads and stores whole
// database snapshots as opaque bytes.
package writer

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	domainerrors "github.com/leengari/dbon/internal/domain/errors"
)

// Fingerprint identifies the content of a snapshot.
type Fingerprint uint64

// Sum fingerprints data.
func Sum(data []byte) Fingerprint {
	return Fingerprint(xxh3.Hash(data))
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Load reads the snapshot at path.
// A missing file is ErrPathNotFound; anything else is an IOError.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domainerrors.ErrPathNotFound, path)
		}
		return nil, &domainerrors.IOError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// Save replaces the snapshot at path with data using temp file + atomic rename,
// so a reader never observes a half-written document.
func Save(path string, data []byte) (Fingerprint, error) {
	if path == "" {
		return 0, &domainerrors.IOError{Op: "write", Path: path, Err: errors.New("missing path")}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, &domainerrors.IOError{Op: "mkdir", Path: dir, Err: err}
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, &domainerrors.IOError{Op: "write", Path: tmpPath, Err: err}
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return 0, &domainerrors.IOError{Op: "write", Path: tmpPath, Err: err}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return 0, &domainerrors.IOError{Op: "sync", Path: tmpPath, Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, &domainerrors.IOError{Op: "write", Path: tmpPath, Err: err}
	}

	// Atomic replace
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, &domainerrors.IOError{Op: "rename", Path: path, Err: err}
	}

	sum := Sum(data)
	slog.Debug("Snapshot saved",
		slog.String("path", path),
		slog.Int("bytes", len(data)),
		slog.String("fingerprint", sum.String()),
	)
	return sum, nil
}

// CreateNew writes data to path only if no file exists there yet.
func CreateNew(path string, data []byte) (Fingerprint, error) {
	if _, err := os.Stat(path); err == nil {
		return 0, &domainerrors.IOError{Op: "create", Path: path, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return 0, &domainerrors.IOError{Op: "stat", Path: path, Err: err}
	}
	return Save(path, data)
}

// Remove deletes the snapshot at path.
func Remove(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", domainerrors.ErrPathNotFound, path)
		}
		return &domainerrors.IOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}
