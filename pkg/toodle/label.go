package toodle

import (
	"fmt"

	"github.com/mesh-intelligence/toodle/internal/handle"
	"github.com/mesh-intelligence/toodle/internal/native"
	"github.com/mesh-intelligence/toodle/pkg/types"
)

// Label is a named, colored tag. Labels returned by Item.Labels belong to
// that item; all others belong to the caller until Close.
type Label struct {
	store *Store
	ref   *handle.Ref[native.LabelHandle]
	owner *Item
}

// UUID returns the stable record identifier.
func (l *Label) UUID() (string, error) {
	return l.text("label uuid", l.store.lib.LabelUUID)
}

// Name returns the label name.
func (l *Label) Name() (string, error) {
	return l.text("label name", l.store.lib.LabelName)
}

// Color returns the label color as a hex string such as "#ff0000".
func (l *Label) Color() (string, error) {
	return l.text("label color", l.store.lib.LabelColor)
}

// Snapshot reads every field into a plain record.
func (l *Label) Snapshot() (types.LabelRecord, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	h, err := l.ref.Borrow()
	if err != nil {
		return types.LabelRecord{}, err
	}
	var rec types.LabelRecord
	if rec.UUID, err = l.store.lib.LabelUUID(h); err != nil {
		return rec, nativeErr("label uuid", err)
	}
	if rec.Name, err = l.store.lib.LabelName(h); err != nil {
		return rec, nativeErr("label name", err)
	}
	if rec.Color, err = l.store.lib.LabelColor(h); err != nil {
		return rec, nativeErr("label color", err)
	}
	return rec, nil
}

// Close releases a caller-owned label. It does nothing for labels owned by
// an item, which are released with the item.
func (l *Label) Close() error {
	if l.owner != nil {
		return nil
	}
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	delete(l.store.live, l)
	return l.releaseLocked()
}

// borrow lends the handle for a label array. The store lock is held by
// the caller.
func (l *Label) borrow() (native.LabelHandle, error) {
	return l.ref.Borrow()
}

func (l *Label) releaseLocked() error {
	if err := l.ref.Release(); err != nil {
		return fmt.Errorf("release label: %w", err)
	}
	return nil
}

func (l *Label) text(op string, call func(native.LabelHandle) (string, error)) (string, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	h, err := l.ref.Borrow()
	if err != nil {
		return "", err
	}
	v, err := call(h)
	if err != nil {
		return "", nativeErr(op, err)
	}
	return v, nil
}
