package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leengari/dbon/internal/domain/data"
	domainerrors "github.com/leengari/dbon/internal/domain/errors"
	"github.com/leengari/dbon/internal/domain/schema"
	"github.com/leengari/dbon/internal/domain/transaction"
	"github.com/leengari/dbon/internal/query"
	"github.com/leengari/dbon/internal/storage/dbon"
	"github.com/leengari/dbon/internal/storage/writer"
)

// DB is an open DBON database backed by a single file.
//
// Every public method holds one mutex for its whole duration. Mutating
// methods update the in-memory tables and then save the entire snapshot
// before returning, so snapshots reach the file in mutation order.
type DB struct {
	mu        sync.Mutex
	path      string
	db        *schema.Database
	logger    *slog.Logger
	indent    bool
	observers []Observer
	dirty     bool               // in-memory state newer than the file
	closed    bool
	lastSum   writer.Fingerprint // fingerprint of the last snapshot read or written
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(d *DB) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithIndent pretty-prints saved snapshots.
func WithIndent(indent bool) Option {
	return func(d *DB) { d.indent = indent }
}

// WithObserver registers an observer before the database is opened.
func WithObserver(o Observer) Option {
	return func(d *DB) { d.observers = append(d.observers, o) }
}

func newDB(path string, opts []Option) *DB {
	d := &DB{
		path:      path,
		logger:    slog.Default(),
		observers: make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open loads and validates the database at path.
// Errors match ErrPathNotFound, ErrInvalidJSON, ErrInvalidSchema or ErrIO;
// no DB is returned unless the whole document is valid.
func Open(path string, opts ...Option) (*DB, error) {
	d := newDB(path, opts)

	raw, err := writer.Load(path)
	if err != nil {
		return nil, err
	}
	db, err := dbon.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	d.db = db
	d.lastSum = writer.Sum(raw)

	d.logger.Info("Database loaded successfully",
		slog.String("name", db.Name),
		slog.String("path", path),
		slog.Int("table_count", db.NumOfTables()),
	)
	d.notify(Event{Type: EventOpen, Data: path})
	return d, nil
}

// Create writes an empty database called name at path.
// It refuses to overwrite an existing file.
func Create(name, path string, opts ...Option) error {
	d := newDB(path, opts)
	doc, err := dbon.Empty(name, d.indent)
	if err != nil {
		return &domainerrors.IOError{Op: "encode", Path: path, Err: err}
	}
	if _, err := writer.CreateNew(path, doc); err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}
	d.logger.Info("Database created", slog.String("name", name), slog.String("path", path))
	return nil
}

// CreateAndOpen creates an empty database and opens it.
func CreateAndOpen(name, path string, opts ...Option) (*DB, error) {
	if err := Create(name, path, opts...); err != nil {
		return nil, err
	}
	return Open(path, opts...)
}

// Name returns the database name.
func (d *DB) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Name
}

// Path returns the backing file.
func (d *DB) Path() string {
	return d.path
}

// Tables returns table names in directory order, or nil once closed.
func (d *DB) Tables() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	return d.db.TableNames()
}

// TableInfo is a point-in-time description of a table.
type TableInfo struct {
	Name         string
	Columns      []string
	Relations    []string
	Keys         []string
	IsRelational bool
}

// Describe returns the layout and keys of a table.
func (d *DB) Describe(table string) (TableInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(table)
	if err != nil {
		return TableInfo{}, err
	}
	return TableInfo{
		Name:         t.Name,
		Columns:      t.Columns(),
		Relations:    t.Relations(),
		Keys:         t.Keys(),
		IsRelational: t.IsRelational(),
	}, nil
}

// Records returns a copy of every key and row of a table in storage order.
func (d *DB) Records(table string) ([]schema.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(table)
	if err != nil {
		return nil, err
	}
	return t.Records(), nil
}

// AddTable creates a table with the given columns.
func (d *DB) AddTable(name string, specs []schema.ColumnSpec) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return d.closedError()
	}

	tx := transaction.NewTransaction(transaction.Change{Type: transaction.ChangeTypeCreateTable, Table: name})
	defer tx.Close()

	if _, err := d.db.CreateTable(name, specs); err != nil {
		return err
	}
	return d.commit(tx)
}

// Insert upserts the row for key: columns in values are set, every other
// column of that row becomes unset.
func (d *DB) Insert(table, key string, values map[string]data.Value) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(table)
	if err != nil {
		return err
	}

	tx := transaction.NewTransaction(transaction.Change{Type: transaction.ChangeTypeUpsert, Table: table, Key: key})
	defer tx.Close()

	appended, err := t.Upsert(key, values)
	if err != nil {
		return err
	}
	tx.Change.Appended = appended
	return d.commit(tx)
}

// Set overwrites a single cell of an existing row.
func (d *DB) Set(table, key, column string, value data.Value) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(table)
	if err != nil {
		return err
	}

	tx := transaction.NewTransaction(transaction.Change{
		Type: transaction.ChangeTypeSetCell, Table: table, Key: key, Column: column,
	})
	defer tx.Close()

	if err := t.SetCell(key, column, value); err != nil {
		return err
	}
	return d.commit(tx)
}

// Get returns a single cell. An unset cell is a null Value.
func (d *DB) Get(table, key, column string) (data.Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(table)
	if err != nil {
		return data.Value{}, err
	}
	return t.GetCell(key, column)
}

// RemoveKey deletes a key and its row.
func (d *DB) RemoveKey(table, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(table)
	if err != nil {
		return err
	}

	tx := transaction.NewTransaction(transaction.Change{Type: transaction.ChangeTypeRemoveKey, Table: table, Key: key})
	defer tx.Close()

	if err := t.RemoveKey(key); err != nil {
		return err
	}
	return d.commit(tx)
}

// Find returns the first cell accepted by pred, or a Match with Found == false.
// A nil pred matches nothing. pred runs with the database locked and must not call back into d.
func (d *DB) Find(table string, pred query.Predicate) (query.Match, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(table)
	if err != nil {
		return query.Match{}, err
	}
	return query.Find(t, pred), nil
}

// FindAll returns every cell accepted by pred in scan order.
// pred runs with the database locked and must not call back into d.
func (d *DB) FindAll(table string, pred query.Predicate) ([]query.Match, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.table(table)
	if err != nil {
		return nil, err
	}
	return query.FindAll(t, pred), nil
}

// Snapshot returns the current state as DBON text.
func (d *DB) Snapshot() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, d.closedError()
	}
	return dbon.Encode(d.db, d.indent)
}

// Flush saves the current state. It is the explicit retry after a failed save.
func (d *DB) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return d.closedError()
	}
	return d.save("")
}

// Dirty reports whether the last save failed, leaving the file behind memory.
func (d *DB) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}

// LastFingerprint returns the fingerprint of the last snapshot read or written.
func (d *DB) LastFingerprint() writer.Fingerprint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSum
}

// Reload re-reads the backing file and replaces the in-memory state with it.
// It reports false when the file still holds the snapshot this DB last read
// or wrote. On any error the in-memory state is kept.
func (d *DB) Reload() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false, d.closedError()
	}

	raw, err := writer.Load(d.path)
	if err != nil {
		return false, err
	}
	sum := writer.Sum(raw)
	if sum == d.lastSum {
		return false, nil
	}

	db, err := dbon.Decode(raw)
	if err != nil {
		return false, fmt.Errorf("failed to reload %s: %w", d.path, err)
	}
	if d.dirty {
		d.logger.Warn("Reload discards unsaved changes", slog.String("path", d.path))
	}
	d.db = db
	d.lastSum = sum
	d.dirty = false

	d.logger.Info("Database reloaded",
		slog.String("name", db.Name),
		slog.String("path", d.path),
		slog.String("fingerprint", sum.String()),
	)
	d.notify(Event{Type: EventReload, Data: sum.String()})
	return true, nil
}

// Close detaches the handle from its file. Every later call that reads
// tables or touches the file fails with ErrClosed; unsaved changes are
// discarded. Closing twice is a no-op.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	if d.dirty {
		d.logger.Warn("Closing database with unsaved changes", slog.String("path", d.path))
	}
	d.closed = true
	d.logger.Debug("Database closed", slog.String("name", d.db.Name), slog.String("path", d.path))
	return nil
}

// AddObserver registers an observer to receive lifecycle events
func (d *DB) AddObserver(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, observer)
}

// RemoveObserver unregisters an observer. Observers are matched with ==,
// so the dynamic type must be comparable (a pointer, not a func or a
// struct holding a slice or map); anything else panics.
func (d *DB) RemoveObserver(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, o := range d.observers {
		if o == observer {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			return
		}
	}
}

// table resolves a table of an open database. Must be called with d.mu held.
func (d *DB) table(name string) (*schema.Table, error) {
	if d.closed {
		return nil, d.closedError()
	}
	return d.db.LookupTable(name)
}

func (d *DB) closedError() error {
	return fmt.Errorf("database %s: %w", d.path, domainerrors.ErrClosed)
}

// commit persists a mutation that has already been applied in memory.
// Must be called with d.mu held.
func (d *DB) commit(tx *transaction.Transaction) error {
	d.notify(Event{Type: EventMutate, TxID: tx.ID, Data: tx.Change})
	if err := d.save(tx.ID); err != nil {
		return fmt.Errorf("%s on %q applied but not saved: %w", tx.Change.Type, tx.Change.Table, err)
	}
	d.logger.Debug("Mutation committed",
		slog.String("tx_id", tx.ID),
		slog.Uint64("seq", tx.Seq),
		slog.String("type", string(tx.Change.Type)),
		slog.String("table", tx.Change.Table),
		slog.Duration("elapsed", tx.Elapsed()),
	)
	return nil
}

// save writes the full snapshot. Must be called with d.mu held.
func (d *DB) save(txID string) error {
	doc, err := dbon.Encode(d.db, d.indent)
	if err == nil {
		var sum writer.Fingerprint
		sum, err = writer.Save(d.path, doc)
		if err == nil {
			d.dirty = false
			d.lastSum = sum
			d.notify(Event{Type: EventSave, TxID: txID, Data: sum.String()})
			return nil
		}
	} else {
		err = &domainerrors.IOError{Op: "encode", Path: d.path, Err: err}
	}

	d.dirty = true
	d.notify(Event{Type: EventSaveFailed, TxID: txID, Data: err.Error()})
	return err
}

// notify sends an event to all registered observers
func (d *DB) notify(event Event) {
	event.Timestamp = time.Now()
	if d.db != nil {
		event.Database = d.db.Name
	}
	for _, observer := range d.observers {
		observer.OnEvent(event)
	}
}
