package toodle

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/toodle/internal/handle"
	"github.com/mesh-intelligence/toodle/internal/native"
	"github.com/mesh-intelligence/toodle/internal/timestamp"
	"github.com/mesh-intelligence/toodle/pkg/types"
)

// colorPattern accepts #RGB, #RRGGBB and #RRGGBBAA.
var colorPattern = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)

// entity is a facade whose handle the store must release on Close.
type entity interface {
	releaseLocked() error
}

// Store owns the native handle of one opened backing file.
type Store struct {
	mu        sync.Mutex
	lib       native.Library
	ref       *handle.Ref[native.StoreHandle]
	path      string
	logger    *slog.Logger
	closed    bool
	live      map[entity]struct{}
	mutations uint64

	// owned maps each item handle to the live Item that owns it.
	owned map[native.ItemHandle]*Item

	changedPending bool
	onChanged      func()
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens the store at path through lib. The caller owns the returned
// Store and must Close it.
func Open(lib native.Library, path string, opts ...Option) (*Store, error) {
	h, err := lib.OpenStore(path)
	if err != nil {
		return nil, nativeErr("open store", err)
	}
	ref, err := handle.NewRef(h, lib.DestroyStore)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &Store{
		lib:    lib,
		ref:    ref,
		path:   path,
		logger: slog.Default(),
		live:   make(map[entity]struct{}),
		owned:  make(map[native.ItemHandle]*Item),
	}
	for _, opt := range opts {
		opt(s)
	}

	// The engine callback runs inside a locked store call, so it only
	// records the change; fireChanged delivers it once the lock is dropped.
	if err := lib.OnItemsChanged(h, func() { s.changedPending = true }); err != nil {
		_ = ref.Release()
		return nil, nativeErr("open store", err)
	}
	s.changedPending = false

	s.logger.Debug("store opened", "path", path)
	return s, nil
}

// WithStore opens the store at path, runs fn, and closes the store, so no
// facade can outlive it.
func WithStore(lib native.Library, path string, fn func(*Store) error, opts ...Option) (err error) {
	s, err := Open(lib, path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close())
	}()
	return fn(s)
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases every facade still open, then the store handle. Close is
// idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for e := range s.live {
		if err := e.releaseLocked(); err != nil {
			errs = append(errs, err)
		}
	}
	clear(s.live)
	clear(s.owned)
	if len(errs) > 0 {
		s.logger.Warn("releasing open entities", "path", s.path, "errors", len(errs))
	}
	if err := s.ref.Release(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	s.onChanged = nil
	s.logger.Debug("store closed", "path", s.path)
	return errors.Join(errs...)
}

// OnItemsChanged registers fn to run after every item create or update made
// through this store. fn runs once on registration and never while the store
// lock is held, so it may call back into the store.
func (s *Store) OnItemsChanged(fn func()) error {
	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		h, err := s.borrowLocked()
		if err != nil {
			return err
		}
		s.onChanged = fn
		// Re-registering makes the engine fire once, as on first registration.
		if err := s.lib.OnItemsChanged(h, func() { s.changedPending = true }); err != nil {
			return nativeErr("register items changed", err)
		}
		return nil
	}()
	if err != nil {
		return err
	}
	s.fireChanged()
	return nil
}

// CreateLabel stores a label and returns a caller-owned facade for it. An
// existing label with the same name gets the new color.
func (s *Store) CreateLabel(name, color string) (*Label, error) {
	if name == "" {
		return nil, types.ErrInvalidName
	}
	if !colorPattern.MatchString(color) {
		return nil, fmt.Errorf("color %q: %w", color, types.ErrInvalidColor)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.borrowLocked()
	if err != nil {
		return nil, err
	}
	h, err := s.lib.CreateLabel(st, name, color)
	if err != nil {
		return nil, nativeErr("create label", err)
	}
	s.mutations++
	return s.adoptLabelLocked(h)
}

// CreateItem stores a new item and returns a caller-owned facade for it. The
// item starts uncompleted. A nil dueDate leaves it without a due date; an
// empty labels slice gives it no labels.
func (s *Store) CreateItem(name string, dueDate *time.Time, labels []*Label) (*Item, error) {
	item, err := s.createItem(name, dueDate, labels)
	s.fireChanged()
	return item, err
}

func (s *Store) createItem(name string, dueDate *time.Time, labels []*Label) (*Item, error) {
	if name == "" {
		return nil, types.ErrInvalidName
	}
	due, err := timestamp.ToNative(dueDate)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.borrowLocked()
	if err != nil {
		return nil, err
	}
	if err := s.checkLabelsLocked(labels); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	var h native.ItemHandle
	err = handle.WithArray(labels, (*Label).borrow, func(arr []native.LabelHandle) error {
		var err error
		h, err = s.lib.CreateItem(st, name, due, arr)
		return err
	})
	if err != nil {
		return nil, nativeErr("create item", err)
	}
	s.mutations++
	return s.adoptItemLocked(h)
}

// UpdateItem rewrites item in place. name replaces the current name. A nil
// date is not written, so it leaves the stored value as it was; use
// Item.ClearDueDate or Item.ClearCompletionDate to unset one. labels is the
// complete new label set and replaces the old one in the same transaction;
// an empty slice removes every label.
func (s *Store) UpdateItem(item *Item, name string, dueDate, completionDate *time.Time, labels []*Label) error {
	err := s.updateItem(item, name, dueDate, completionDate, labels)
	s.fireChanged()
	return err
}

func (s *Store) updateItem(item *Item, name string, dueDate, completionDate *time.Time, labels []*Label) error {
	if item == nil {
		return fmt.Errorf("update item: nil item: %w", types.ErrUseAfterRelease)
	}
	if !item.ref.Live() {
		_, err := item.ref.Borrow()
		return fmt.Errorf("update item: %w", err)
	}
	if name == "" {
		return types.ErrInvalidName
	}
	due, err := timestamp.ToNative(dueDate)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	completion, err := timestamp.ToNative(completionDate)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.borrowLocked()
	if err != nil {
		return err
	}
	if item.store != s {
		return ErrWrongStore
	}
	if err := s.checkLabelsLocked(labels); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	ih, err := item.ref.Borrow()
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	err = handle.WithArray(labels, (*Label).borrow, func(arr []native.LabelHandle) error {
		return s.lib.UpdateItem(st, ih, &name, due, completion, arr)
	})
	if err != nil {
		return nativeErr("update item", err)
	}
	s.mutations++
	return nil
}

// AllItems returns a caller-owned facade for every stored item, in storage
// order.
func (s *Store) AllItems() ([]*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.borrowLocked()
	if err != nil {
		return nil, err
	}
	list, err := s.lib.AllItems(st)
	if err != nil {
		return nil, nativeErr("all items", err)
	}
	return s.collectItemsLocked(list)
}

// ItemsWithLabel returns a caller-owned facade for every item carrying label.
func (s *Store) ItemsWithLabel(label *Label) ([]*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.borrowLocked()
	if err != nil {
		return nil, err
	}
	if err := s.checkLabelsLocked([]*Label{label}); err != nil {
		return nil, fmt.Errorf("items with label: %w", err)
	}
	lh, err := label.borrow()
	if err != nil {
		return nil, fmt.Errorf("items with label: %w", err)
	}
	list, err := s.lib.ItemsWithLabel(st, lh)
	if err != nil {
		return nil, nativeErr("items with label", err)
	}
	return s.collectItemsLocked(list)
}

// ItemByUUID returns a caller-owned facade for the item with the given uuid.
func (s *Store) ItemByUUID(id string) (*Item, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("item %q: %w", id, types.ErrInvalidUUID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.borrowLocked()
	if err != nil {
		return nil, err
	}
	h, err := s.lib.ItemByUUID(st, parsed.String())
	if errors.Is(err, native.ErrNoRecord) {
		return nil, fmt.Errorf("item %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, nativeErr("item by uuid", err)
	}
	return s.adoptItemLocked(h)
}

// AdoptItem takes ownership of a raw item handle, such as one produced by
// Item.IntoRaw, and wraps it in a facade registered with this store. A
// handle already owned by a live Item is rejected with ErrHandleOwned.
func (s *Store) AdoptItem(h native.ItemHandle) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.borrowLocked(); err != nil {
		return nil, err
	}
	return s.adoptItemLocked(h)
}

// AllLabels returns a caller-owned facade for every label, in storage order.
func (s *Store) AllLabels() ([]*Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.borrowLocked()
	if err != nil {
		return nil, err
	}
	list, err := s.lib.AllLabels(st)
	if err != nil {
		return nil, nativeErr("all labels", err)
	}
	return s.collectLabelsLocked(list)
}

// LabelByName returns a caller-owned facade for the label called name.
func (s *Store) LabelByName(name string) (*Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.borrowLocked()
	if err != nil {
		return nil, err
	}
	h, err := s.lib.LabelByName(st, name)
	if errors.Is(err, native.ErrNoRecord) {
		return nil, fmt.Errorf("label %q: %w", name, types.ErrNotFound)
	}
	if err != nil {
		return nil, nativeErr("label by name", err)
	}
	return s.adoptLabelLocked(h)
}

// borrowLocked lends the store handle for one native call. The caller must
// hold s.mu.
func (s *Store) borrowLocked() (native.StoreHandle, error) {
	if s.closed {
		return 0, types.ErrStoreClosed
	}
	return s.ref.Borrow()
}

// checkLabelsLocked rejects labels produced by another store.
func (s *Store) checkLabelsLocked(labels []*Label) error {
	for _, l := range labels {
		if l == nil {
			return fmt.Errorf("nil label: %w", types.ErrUseAfterRelease)
		}
		if l.store != s {
			return ErrWrongStore
		}
	}
	return nil
}

// adoptItemLocked wraps a fresh item handle in a registered facade. The
// handle is destroyed if it does not resolve to a record, so no facade is
// ever built around an invalid handle.
func (s *Store) adoptItemLocked(h native.ItemHandle) (*Item, error) {
	if _, ok := s.owned[h]; ok {
		return nil, fmt.Errorf("adopt item %d: %w", h, ErrHandleOwned)
	}
	guard, err := handle.NewRef(h, s.lib.DestroyItem)
	if err != nil {
		return nil, err
	}
	if _, err := s.lib.ItemUUID(h); err != nil {
		_ = guard.Release()
		return nil, nativeErr("adopt item", err)
	}
	item := &Item{store: s, ref: guard, raw: h}
	s.live[item] = struct{}{}
	s.owned[h] = item
	return item, nil
}

// forgetLocked drops item from the store's bookkeeping once it no longer
// owns its handle.
func (s *Store) forgetLocked(item *Item) {
	delete(s.live, item)
	if s.owned[item.raw] == item {
		delete(s.owned, item.raw)
	}
}

// adoptLabelLocked wraps a fresh label handle in a caller-owned facade
// registered with the store.
func (s *Store) adoptLabelLocked(h native.LabelHandle) (*Label, error) {
	guard, err := handle.NewRef(h, s.lib.DestroyLabel)
	if err != nil {
		return nil, err
	}
	if _, err := s.lib.LabelUUID(h); err != nil {
		_ = guard.Release()
		return nil, nativeErr("adopt label", err)
	}
	label := &Label{store: s, ref: guard}
	s.live[label] = struct{}{}
	return label, nil
}

// collectItemsLocked materializes an item list handle into facades and
// destroys the list. On failure every facade built so far is released.
func (s *Store) collectItemsLocked(list native.ItemListHandle) (items []*Item, err error) {
	listRef, err := handle.NewRef(list, s.lib.DestroyItemList)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := listRef.Release(); relErr != nil && err == nil {
			err = relErr
		}
		if err != nil {
			for _, item := range items {
				_ = item.releaseLocked()
			}
			items = nil
		}
	}()

	n, err := s.lib.ItemListCount(list)
	if err != nil {
		return nil, nativeErr("item list count", err)
	}
	items = make([]*Item, 0, n)
	for i := 0; i < n; i++ {
		h, err := s.lib.ItemListEntryAt(list, i)
		if err != nil {
			return items, nativeErr("item list entry", err)
		}
		item, err := s.adoptItemLocked(h)
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}

// collectLabelsLocked materializes a label list handle into caller-owned
// facades and destroys the list.
func (s *Store) collectLabelsLocked(list native.LabelListHandle) (labels []*Label, err error) {
	listRef, err := handle.NewRef(list, s.lib.DestroyLabelList)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := listRef.Release(); relErr != nil && err == nil {
			err = relErr
		}
		if err != nil {
			for _, l := range labels {
				_ = l.releaseLocked()
			}
			labels = nil
		}
	}()

	n, err := s.lib.LabelListCount(list)
	if err != nil {
		return nil, nativeErr("label list count", err)
	}
	labels = make([]*Label, 0, n)
	for i := 0; i < n; i++ {
		h, err := s.lib.LabelListEntryAt(list, i)
		if err != nil {
			return labels, nativeErr("label list entry", err)
		}
		label, err := s.adoptLabelLocked(h)
		if err != nil {
			return labels, err
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// fireChanged delivers a pending change notification outside the lock.
func (s *Store) fireChanged() {
	s.mu.Lock()
	fn := s.onChanged
	pending := s.changedPending
	s.changedPending = false
	s.mu.Unlock()

	if pending && fn != nil {
		fn()
	}
}
