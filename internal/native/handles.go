package native

import (
	"database/sql"
	"fmt"
	"sync"
)

// Opaque handle kinds. Zero is the null handle for every kind; callers must
// never interpret the numeric value.
type (
	StoreHandle     uint64
	ItemHandle      uint64
	LabelHandle     uint64
	ItemListHandle  uint64
	LabelListHandle uint64
)

// storeObj is the native state behind a StoreHandle.
type storeObj struct {
	path      string
	db        *sql.DB
	destroyed bool
	onChanged func()
}

// itemObj and labelObj point at one record row. Several handles may refer to
// the same row; each handle is its own allocation.
type itemObj struct {
	store *storeObj
	id    int64
}

type labelObj struct {
	store *storeObj
	id    int64
}

// List objects are point-in-time snapshots of row ids.
type itemListObj struct {
	store *storeObj
	ids   []int64
}

type labelListObj struct {
	store *storeObj
	ids   []int64
}

// handleTable allocates handles and maps them to native objects.
type handleTable struct {
	mu      sync.Mutex
	next    uint64
	objects map[uint64]any
}

func newHandleTable() *handleTable {
	return &handleTable{objects: make(map[uint64]any)}
}

// alloc registers obj and returns its fresh handle. The caller must hold mu.
func (t *handleTable) alloc(obj any) uint64 {
	t.next++
	t.objects[t.next] = obj
	return t.next
}

// free removes h. The caller must hold mu.
func (t *handleTable) free(h uint64) (any, error) {
	obj, ok := t.objects[h]
	if !ok {
		return nil, fmt.Errorf("free %d: %w", h, ErrInvalidHandle)
	}
	delete(t.objects, h)
	return obj, nil
}

// live returns the number of allocated handles.
func (t *handleTable) live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.objects)
}

// lookup resolves h to an object of kind T. The caller must hold mu.
func lookup[T any](t *handleTable, h uint64) (T, error) {
	var zero T
	if h == 0 {
		return zero, fmt.Errorf("null handle: %w", ErrInvalidHandle)
	}
	obj, ok := t.objects[h]
	if !ok {
		return zero, fmt.Errorf("handle %d: %w", h, ErrInvalidHandle)
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("handle %d has kind %T: %w", h, obj, ErrInvalidHandle)
	}
	return typed, nil
}

// liveStore returns the store for a record or list object, failing when the
// store was destroyed underneath it.
func liveStore(st *storeObj) (*storeObj, error) {
	if st == nil || st.destroyed {
		return nil, ErrStoreDestroyed
	}
	return st, nil
}
