package native

import "fmt"

// ItemListCount returns the number of entries in an item list.
func (r *Runtime) ItemListCount(list ItemListHandle) (int, error) {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	l, err := lookup[*itemListObj](r.handles, uint64(list))
	if err != nil {
		return 0, fmt.Errorf("item list count: %w", err)
	}
	return len(l.ids), nil
}

// ItemListEntryAt returns a fresh, caller-owned handle to the item at index.
func (r *Runtime) ItemListEntryAt(list ItemListHandle, index int) (ItemHandle, error) {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	l, err := lookup[*itemListObj](r.handles, uint64(list))
	if err != nil {
		return 0, fmt.Errorf("item list entry: %w", err)
	}
	if _, err := liveStore(l.store); err != nil {
		return 0, fmt.Errorf("item list entry: %w", err)
	}
	if index < 0 || index >= len(l.ids) {
		return 0, fmt.Errorf("item list entry %d of %d: %w", index, len(l.ids), ErrIndexOutOfRange)
	}
	return ItemHandle(r.handles.alloc(&itemObj{store: l.store, id: l.ids[index]})), nil
}

// DestroyItemList frees an item list handle. Entry handles already handed
// out stay valid.
func (r *Runtime) DestroyItemList(list ItemListHandle) error {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	if _, err := lookup[*itemListObj](r.handles, uint64(list)); err != nil {
		return fmt.Errorf("destroy item list: %w", err)
	}
	_, err := r.handles.free(uint64(list))
	return err
}

// LabelListCount returns the number of entries in a label list.
func (r *Runtime) LabelListCount(list LabelListHandle) (int, error) {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	l, err := lookup[*labelListObj](r.handles, uint64(list))
	if err != nil {
		return 0, fmt.Errorf("label list count: %w", err)
	}
	return len(l.ids), nil
}

// LabelListEntryAt returns a fresh, caller-owned handle to the label at index.
func (r *Runtime) LabelListEntryAt(list LabelListHandle, index int) (LabelHandle, error) {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	l, err := lookup[*labelListObj](r.handles, uint64(list))
	if err != nil {
		return 0, fmt.Errorf("label list entry: %w", err)
	}
	if _, err := liveStore(l.store); err != nil {
		return 0, fmt.Errorf("label list entry: %w", err)
	}
	if index < 0 || index >= len(l.ids) {
		return 0, fmt.Errorf("label list entry %d of %d: %w", index, len(l.ids), ErrIndexOutOfRange)
	}
	return LabelHandle(r.handles.alloc(&labelObj{store: l.store, id: l.ids[index]})), nil
}

// DestroyLabelList frees a label list handle.
func (r *Runtime) DestroyLabelList(list LabelListHandle) error {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	if _, err := lookup[*labelListObj](r.handles, uint64(list)); err != nil {
		return fmt.Errorf("destroy label list: %w", err)
	}
	_, err := r.handles.free(uint64(list))
	return err
}
