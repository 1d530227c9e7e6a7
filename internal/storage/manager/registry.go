package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	domainerrors "github.com/leengari/dbon/internal/domain/errors"
	"github.com/leengari/dbon/internal/engine"
	"github.com/leengari/dbon/internal/storage/writer"
)

// Registry manages the databases of one data directory in a thread-safe way.
// Opened databases are cached, so every caller shares a single *engine.DB
// (and its lock) per file.
type Registry struct {
	mu       sync.RWMutex
	loaded   map[string]*engine.DB
	basePath string
	opts     []engine.Option
	logger   *slog.Logger
}

// NewRegistry creates a registry over basePath. opts are passed to every
// database it opens or creates.
func NewRegistry(basePath string, logger *slog.Logger, opts ...engine.Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		loaded:   make(map[string]*engine.DB),
		basePath: basePath,
		opts:     append([]engine.Option{engine.WithLogger(logger)}, opts...),
		logger:   logger,
	}
}

// BasePath returns the data directory.
func (r *Registry) BasePath() string {
	return r.basePath
}

// Get opens a database (or returns the cached one).
func (r *Registry) Get(name string) (*engine.DB, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	r.mu.RLock()
	db, ok := r.loaded[name]
	r.mu.RUnlock()
	if ok {
		return db, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have opened it while we waited
	if db, ok := r.loaded[name]; ok {
		return db, nil
	}

	db, err := engine.Open(DatabasePath(r.basePath, name), r.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load database '%s': %w", name, err)
	}
	r.loaded[name] = db
	return db, nil
}

// Create creates a new empty database and caches it.
func (r *Registry) Create(name string) (*engine.DB, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := DatabasePath(r.basePath, name)
	if _, ok := r.loaded[name]; ok {
		return nil, fmt.Errorf("%w: '%s' (loaded)", domainerrors.ErrDuplicateDatabase, name)
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: '%s'", domainerrors.ErrDuplicateDatabase, name)
	}

	db, err := engine.CreateAndOpen(name, path, r.opts...)
	if err != nil {
		return nil, err
	}
	r.loaded[name] = db
	return db, nil
}

// Drop closes and deletes a database. Handles returned earlier by Get or
// Create fail with ErrClosed from then on.
func (r *Registry) Drop(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if db, ok := r.loaded[name]; ok {
		_ = db.Close()
		delete(r.loaded, name)
	}
	if err := writer.Remove(DatabasePath(r.basePath, name)); err != nil {
		return fmt.Errorf("failed to drop database '%s': %w", name, err)
	}
	r.logger.Info("Database dropped", slog.String("name", name))
	return nil
}

// List returns the names of all databases in the data directory.
func (r *Registry) List() ([]string, error) {
	return ListDatabases(r.basePath)
}

// FlushAll saves every loaded database that has unsaved changes.
func (r *Registry) FlushAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for name, db := range r.loaded {
		if !db.Dirty() {
			continue
		}
		if err := db.Flush(); err != nil {
			r.logger.Error("failed to save database", slog.String("name", name), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("database '%s': %w", name, err))
		}
	}
	return errors.Join(errs...)
}
