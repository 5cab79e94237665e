package toodle

import (
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/toodle/internal/handle"
	"github.com/mesh-intelligence/toodle/internal/native"
	"github.com/mesh-intelligence/toodle/internal/timestamp"
	"github.com/mesh-intelligence/toodle/pkg/types"
)

// Item is a to-do record. The caller owns an Item until Close, or until
// the Store that produced it is closed.
type Item struct {
	store *Store
	ref   *handle.Ref[native.ItemHandle]
	// raw is the handle ref owns; it keys Store.owned.
	raw native.ItemHandle

	// labels caches the association as of store mutation labelsAt.
	labels      []*Label
	labelsAt    uint64
	labelsValid bool
	// known holds every label facade the item has handed out, by label
	// uuid. A row seen again reuses its facade.
	known map[string]*Label
}

// UUID returns the stable record identifier.
func (i *Item) UUID() (string, error) {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()

	h, err := i.ref.Borrow()
	if err != nil {
		return "", err
	}
	id, err := i.store.lib.ItemUUID(h)
	if err != nil {
		return "", nativeErr("item uuid", err)
	}
	return id, nil
}

// Name returns the item name.
func (i *Item) Name() (string, error) {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()

	h, err := i.ref.Borrow()
	if err != nil {
		return "", err
	}
	name, err := i.store.lib.ItemName(h)
	if err != nil {
		return "", nativeErr("item name", err)
	}
	return name, nil
}

// SetName renames the item.
func (i *Item) SetName(name string) error {
	if name == "" {
		return types.ErrInvalidName
	}
	return i.mutate("set name", func(h native.ItemHandle) error {
		return i.store.lib.ItemSetName(h, name)
	})
}

// DueDate returns the due date, or nil when none is set.
func (i *Item) DueDate() (*time.Time, error) {
	return i.readDate("due date", i.store.lib.ItemDueDate)
}

// SetDueDate sets the due date, truncated to whole seconds. A nil date is
// ignored and leaves the stored value unchanged; use ClearDueDate to unset it.
func (i *Item) SetDueDate(t *time.Time) error {
	return i.writeDate("set due date", t, i.store.lib.ItemSetDueDate)
}

// ClearDueDate removes the due date.
func (i *Item) ClearDueDate() error {
	return i.mutate("clear due date", i.store.lib.ItemClearDueDate)
}

// CompletionDate returns the completion date, or nil when the item is open.
func (i *Item) CompletionDate() (*time.Time, error) {
	return i.readDate("completion date", i.store.lib.ItemCompletionDate)
}

// SetCompletionDate marks the item done at t. A nil date is ignored; use
// ClearCompletionDate to reopen the item.
func (i *Item) SetCompletionDate(t *time.Time) error {
	return i.writeDate("set completion date", t, i.store.lib.ItemSetCompletionDate)
}

// ClearCompletionDate reopens the item.
func (i *Item) ClearCompletionDate() error {
	return i.mutate("clear completion date", i.store.lib.ItemClearCompletionDate)
}

// Done reports whether the item has a completion date.
func (i *Item) Done() (bool, error) {
	t, err := i.CompletionDate()
	if err != nil {
		return false, err
	}
	return t != nil, nil
}

// Labels returns the labels associated with the item. The returned labels
// are owned by the item and stay valid until it is released; callers must
// not Close them. The snapshot is reused until the store is next mutated,
// and a label row keeps the same facade across refreshes.
func (i *Item) Labels() ([]*Label, error) {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()

	h, err := i.ref.Borrow()
	if err != nil {
		return nil, err
	}
	if i.labelsValid && i.labelsAt == i.store.mutations {
		return append([]*Label(nil), i.labels...), nil
	}

	list, err := i.store.lib.ItemLabels(h)
	if err != nil {
		return nil, nativeErr("item labels", err)
	}
	labels, err := i.collectLabelsLocked(list)
	if err != nil {
		return nil, err
	}
	i.labels = labels
	i.labelsAt = i.store.mutations
	i.labelsValid = true
	return append([]*Label(nil), labels...), nil
}

// Snapshot reads every field into a plain record.
func (i *Item) Snapshot() (types.ItemRecord, error) {
	var rec types.ItemRecord
	var err error
	if rec.UUID, err = i.UUID(); err != nil {
		return rec, err
	}
	if rec.Name, err = i.Name(); err != nil {
		return rec, err
	}
	if rec.DueDate, err = i.DueDate(); err != nil {
		return rec, err
	}
	if rec.CompletionDate, err = i.CompletionDate(); err != nil {
		return rec, err
	}
	labels, err := i.Labels()
	if err != nil {
		return rec, err
	}
	rec.Labels = make([]types.LabelRecord, 0, len(labels))
	for _, l := range labels {
		lr, err := l.Snapshot()
		if err != nil {
			return rec, err
		}
		rec.Labels = append(rec.Labels, lr)
	}
	return rec, nil
}

// IntoRaw gives up ownership of the native handle. The Item becomes unusable
// and the caller must destroy the handle or pass it to Store.AdoptItem.
func (i *Item) IntoRaw() (native.ItemHandle, error) {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()

	h, err := i.ref.Consume()
	if err != nil {
		return 0, err
	}
	i.store.forgetLocked(i)
	i.releaseLabelsLocked()
	return h, nil
}

// Close releases the item handle and every label it produced. Close is
// idempotent.
func (i *Item) Close() error {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()

	return i.releaseLocked()
}

func (i *Item) releaseLocked() error {
	i.store.forgetLocked(i)
	errs := i.releaseLabelsLocked()
	if err := i.ref.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release item: %w", err))
	}
	return errors.Join(errs...)
}

func (i *Item) releaseLabelsLocked() []error {
	var errs []error
	for _, l := range i.known {
		if err := l.releaseLocked(); err != nil {
			errs = append(errs, err)
		}
	}
	i.labels, i.known = nil, nil
	i.labelsValid = false
	return errs
}

// collectLabelsLocked materializes a label list handle and destroys it.
// Rows the item already has a facade for keep that facade; their fresh
// handles are released on the spot.
func (i *Item) collectLabelsLocked(list native.LabelListHandle) (labels []*Label, err error) {
	s := i.store
	listRef, err := handle.NewRef(list, s.lib.DestroyLabelList)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := listRef.Release(); relErr != nil && err == nil {
			err = relErr
		}
	}()

	n, err := s.lib.LabelListCount(list)
	if err != nil {
		return nil, nativeErr("label list count", err)
	}
	if i.known == nil {
		i.known = make(map[string]*Label)
	}
	labels = make([]*Label, 0, n)
	for idx := 0; idx < n; idx++ {
		h, err := s.lib.LabelListEntryAt(list, idx)
		if err != nil {
			return nil, nativeErr("label list entry", err)
		}
		l, err := i.labelForLocked(h)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// labelForLocked takes ownership of h and returns the item's facade for
// its row, adopting h only when the row is new to the item.
func (i *Item) labelForLocked(h native.LabelHandle) (*Label, error) {
	s := i.store
	guard, err := handle.NewRef(h, s.lib.DestroyLabel)
	if err != nil {
		return nil, err
	}
	id, err := s.lib.LabelUUID(h)
	if err != nil {
		_ = guard.Release()
		return nil, nativeErr("adopt label", err)
	}
	if l, ok := i.known[id]; ok {
		if err := guard.Release(); err != nil {
			return nil, fmt.Errorf("release label: %w", err)
		}
		return l, nil
	}
	l := &Label{store: s, ref: guard, owner: i}
	i.known[id] = l
	return l, nil
}

// mutate runs one native write against the item, then delivers the change
// notification once the store lock is released.
func (i *Item) mutate(op string, call func(native.ItemHandle) error) error {
	err := func() error {
		i.store.mu.Lock()
		defer i.store.mu.Unlock()

		h, err := i.ref.Borrow()
		if err != nil {
			return err
		}
		if err := call(h); err != nil {
			return nativeErr(op, err)
		}
		i.store.mutations++
		return nil
	}()
	i.store.fireChanged()
	return err
}

func (i *Item) readDate(op string, call func(native.ItemHandle) (*int64, error)) (*time.Time, error) {
	i.store.mu.Lock()
	defer i.store.mu.Unlock()

	h, err := i.ref.Borrow()
	if err != nil {
		return nil, err
	}
	v, err := call(h)
	if err != nil {
		return nil, nativeErr(op, err)
	}
	return timestamp.FromNative(v), nil
}

func (i *Item) writeDate(op string, t *time.Time, call func(native.ItemHandle, *int64) error) error {
	if t == nil {
		// Nothing is written, but a released item still fails.
		i.store.mu.Lock()
		defer i.store.mu.Unlock()
		_, err := i.ref.Borrow()
		return err
	}
	v, err := timestamp.ToNative(t)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return i.mutate(op, func(h native.ItemHandle) error {
		return call(h, v)
	})
}
