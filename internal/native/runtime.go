package native

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Runtime is the engine instance. It owns the handle table shared by every
// store opened through it. All calls are serialized on one mutex; the engine
// makes no other thread-safety promise.
type Runtime struct {
	handles *handleTable
	logger  *slog.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for engine diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRuntime creates an engine with an empty handle table.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		handles: newHandleTable(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LiveHandles returns the number of handles not yet destroyed.
func (r *Runtime) LiveHandles() int {
	return r.handles.live()
}

// OpenStore opens (creating if needed) the SQLite file at path and returns a
// handle owning the connection.
func (r *Runtime) OpenStore(path string) (StoreHandle, error) {
	if path == "" {
		return 0, fmt.Errorf("open store: empty path: %w", ErrInvalidArgument)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return 0, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	// SQLite benefits from a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range connectionPragmas {
		if _, err := db.Exec(stmt); err != nil {
			closeQuietly(r.logger, db)
			return 0, fmt.Errorf("applying %q: %w", stmt, err)
		}
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			closeQuietly(r.logger, db)
			return 0, fmt.Errorf("applying schema: %w", err)
		}
	}

	r.handles.mu.Lock()
	h := r.handles.alloc(&storeObj{path: path, db: db})
	r.handles.mu.Unlock()

	r.logger.Debug("store opened", "path", path, "handle", h)
	return StoreHandle(h), nil
}

// DestroyStore closes the store connection and frees the handle. Record and
// list handles produced from the store stay allocated until destroyed, but
// every call on them fails with ErrStoreDestroyed.
func (r *Runtime) DestroyStore(store StoreHandle) error {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	st, err := lookup[*storeObj](r.handles, uint64(store))
	if err != nil {
		return fmt.Errorf("destroy store: %w", err)
	}
	if _, err := r.handles.free(uint64(store)); err != nil {
		return err
	}
	st.destroyed = true
	st.onChanged = nil
	if err := st.db.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", st.path, err)
	}
	r.logger.Debug("store destroyed", "path", st.path, "handle", uint64(store))
	return nil
}

// OnItemsChanged registers a callback fired after every item create or
// update on store. The callback is invoked once on registration and always
// outside the engine lock, so it may call back into the engine.
func (r *Runtime) OnItemsChanged(store StoreHandle, callback func()) error {
	r.handles.mu.Lock()
	st, err := r.store(store)
	if err == nil {
		st.onChanged = callback
	}
	r.handles.mu.Unlock()
	if err != nil {
		return fmt.Errorf("register items changed: %w", err)
	}
	if callback != nil {
		callback()
	}
	return nil
}

// store resolves a live store handle. The caller must hold the table lock.
func (r *Runtime) store(h StoreHandle) (*storeObj, error) {
	st, err := lookup[*storeObj](r.handles, uint64(h))
	if err != nil {
		return nil, err
	}
	return liveStore(st)
}

// notify runs fn outside the lock when non-nil.
func notify(fn func()) {
	if fn != nil {
		fn()
	}
}

// newUUID generates a UUID v7 for record identity.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

func nowText() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func closeQuietly(logger *slog.Logger, db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Error("error closing db", "error", err)
	}
}
