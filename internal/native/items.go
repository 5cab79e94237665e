package native

import (
	"database/sql"
	"errors"
	"fmt"
)

// CreateItem stores a new, uncompleted item associated with labels and
// returns a handle to it. dueDate is seconds since the epoch; nil leaves the
// item without a due date. The labels array is only read during the call.
func (r *Runtime) CreateItem(store StoreHandle, name string, dueDate *int64, labels []LabelHandle) (ItemHandle, error) {
	h, changed, err := r.createItem(store, name, dueDate, labels)
	if err != nil {
		return 0, err
	}
	notify(changed)
	return h, nil
}

func (r *Runtime) createItem(store StoreHandle, name string, dueDate *int64, labels []LabelHandle) (ItemHandle, func(), error) {
	if name == "" {
		return 0, nil, fmt.Errorf("create item: empty name: %w", ErrInvalidArgument)
	}
	due, err := toMicros(dueDate)
	if err != nil {
		return 0, nil, fmt.Errorf("create item: %w", err)
	}

	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	st, err := r.store(store)
	if err != nil {
		return 0, nil, fmt.Errorf("create item: %w", err)
	}
	labelIDs, err := r.resolveLabels(st, labels)
	if err != nil {
		return 0, nil, fmt.Errorf("create item: %w", err)
	}

	tx, err := st.db.Begin()
	if err != nil {
		return 0, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := nowText()
	res, err := tx.Exec(
		`INSERT INTO items (uuid, name, due_date, completion_date, created_at, updated_at)
		 VALUES (?, ?, ?, NULL, ?, ?)`,
		newUUID(), name, due, now, now,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("persisting item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, nil, fmt.Errorf("reading item id: %w", err)
	}
	if err := insertItemLabels(tx, id, labelIDs); err != nil {
		return 0, nil, err
	}
	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("committing item: %w", err)
	}

	return ItemHandle(r.handles.alloc(&itemObj{store: st, id: id})), st.onChanged, nil
}

// UpdateItem mutates the item record behind item in one transaction. A nil
// name or date leaves that field untouched. A nil labels slice leaves the
// association untouched; a non-nil slice, empty included, replaces it.
func (r *Runtime) UpdateItem(store StoreHandle, item ItemHandle, name *string, dueDate, completionDate *int64, labels []LabelHandle) error {
	changed, err := r.updateItem(store, item, name, dueDate, completionDate, labels)
	if err != nil {
		return err
	}
	notify(changed)
	return nil
}

func (r *Runtime) updateItem(store StoreHandle, item ItemHandle, name *string, dueDate, completionDate *int64, labels []LabelHandle) (func(), error) {
	if name != nil && *name == "" {
		return nil, fmt.Errorf("update item: empty name: %w", ErrInvalidArgument)
	}
	due, err := toMicros(dueDate)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	completion, err := toMicros(completionDate)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	st, err := r.store(store)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	it, err := r.item(item)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if it.store != st {
		return nil, fmt.Errorf("update item: %w", ErrForeignHandle)
	}

	var labelIDs []int64
	if labels != nil {
		if labelIDs, err = r.resolveLabels(st, labels); err != nil {
			return nil, fmt.Errorf("update item: %w", err)
		}
	}

	tx, err := st.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE items SET
		   name = COALESCE(?, name),
		   due_date = COALESCE(?, due_date),
		   completion_date = COALESCE(?, completion_date),
		   updated_at = ?
		 WHERE item_id = ?`,
		nullString(name), due, completion, nowText(), it.id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("update item %d: %w", it.id, ErrNoRecord)
	}

	if labels != nil {
		if _, err := tx.Exec("DELETE FROM item_labels WHERE item_id = ?", it.id); err != nil {
			return nil, fmt.Errorf("clearing item labels: %w", err)
		}
		if err := insertItemLabels(tx, it.id, labelIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item update: %w", err)
	}
	return st.onChanged, nil
}

// ItemByUUID returns a handle to the item with the given uuid, or
// ErrNoRecord.
func (r *Runtime) ItemByUUID(store StoreHandle, uuid string) (ItemHandle, error) {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	st, err := r.store(store)
	if err != nil {
		return 0, fmt.Errorf("item by uuid: %w", err)
	}
	var id int64
	err = st.db.QueryRow("SELECT item_id FROM items WHERE uuid = ?", uuid).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("item %s: %w", uuid, ErrNoRecord)
	}
	if err != nil {
		return 0, fmt.Errorf("looking up item %s: %w", uuid, err)
	}
	return ItemHandle(r.handles.alloc(&itemObj{store: st, id: id})), nil
}

// AllItems snapshots every item in storage order.
func (r *Runtime) AllItems(store StoreHandle) (ItemListHandle, error) {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	st, err := r.store(store)
	if err != nil {
		return 0, fmt.Errorf("all items: %w", err)
	}
	ids, err := queryIDs(st.db, "SELECT item_id FROM items ORDER BY item_id")
	if err != nil {
		return 0, fmt.Errorf("all items: %w", err)
	}
	return ItemListHandle(r.handles.alloc(&itemListObj{store: st, ids: ids})), nil
}

// ItemsWithLabel snapshots the items associated with label, in storage order.
func (r *Runtime) ItemsWithLabel(store StoreHandle, label LabelHandle) (ItemListHandle, error) {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	st, err := r.store(store)
	if err != nil {
		return 0, fmt.Errorf("items with label: %w", err)
	}
	labelIDs, err := r.resolveLabels(st, []LabelHandle{label})
	if err != nil {
		return 0, fmt.Errorf("items with label: %w", err)
	}
	ids, err := queryIDs(st.db,
		`SELECT i.item_id FROM items i
		 INNER JOIN item_labels il ON il.item_id = i.item_id
		 WHERE il.label_id = ?
		 ORDER BY i.item_id`,
		labelIDs[0],
	)
	if err != nil {
		return 0, fmt.Errorf("items with label: %w", err)
	}
	return ItemListHandle(r.handles.alloc(&itemListObj{store: st, ids: ids})), nil
}

// ItemUUID returns the item's record identity.
func (r *Runtime) ItemUUID(item ItemHandle) (string, error) {
	var v string
	if err := r.readItem(item, "uuid", &v); err != nil {
		return "", err
	}
	return v, nil
}

// ItemName returns the item's name.
func (r *Runtime) ItemName(item ItemHandle) (string, error) {
	var v string
	if err := r.readItem(item, "name", &v); err != nil {
		return "", err
	}
	return v, nil
}

// ItemSetName renames the item.
func (r *Runtime) ItemSetName(item ItemHandle, name string) error {
	if name == "" {
		return fmt.Errorf("set item name: empty name: %w", ErrInvalidArgument)
	}
	return r.writeItem(item, "name", name)
}

// ItemDueDate returns a fresh reference to the due date in seconds, or nil
// when unset.
func (r *Runtime) ItemDueDate(item ItemHandle) (*int64, error) {
	var v sql.NullInt64
	if err := r.readItem(item, "due_date", &v); err != nil {
		return nil, err
	}
	return fromMicros(v), nil
}

// ItemSetDueDate writes the due date. A nil reference writes nothing; use
// ItemClearDueDate to unset.
func (r *Runtime) ItemSetDueDate(item ItemHandle, dueDate *int64) error {
	if dueDate == nil {
		return r.checkItem(item, "set due date")
	}
	v, err := toMicros(dueDate)
	if err != nil {
		return fmt.Errorf("set due date: %w", err)
	}
	return r.writeItem(item, "due_date", v)
}

// ItemClearDueDate unsets the due date.
func (r *Runtime) ItemClearDueDate(item ItemHandle) error {
	return r.writeItem(item, "due_date", sql.NullInt64{})
}

// ItemCompletionDate returns a fresh reference to the completion date in
// seconds, or nil when unset.
func (r *Runtime) ItemCompletionDate(item ItemHandle) (*int64, error) {
	var v sql.NullInt64
	if err := r.readItem(item, "completion_date", &v); err != nil {
		return nil, err
	}
	return fromMicros(v), nil
}

// ItemSetCompletionDate writes the completion date. A nil reference writes
// nothing; use ItemClearCompletionDate to unset.
func (r *Runtime) ItemSetCompletionDate(item ItemHandle, completionDate *int64) error {
	if completionDate == nil {
		return r.checkItem(item, "set completion date")
	}
	v, err := toMicros(completionDate)
	if err != nil {
		return fmt.Errorf("set completion date: %w", err)
	}
	return r.writeItem(item, "completion_date", v)
}

// ItemClearCompletionDate unsets the completion date.
func (r *Runtime) ItemClearCompletionDate(item ItemHandle) error {
	return r.writeItem(item, "completion_date", sql.NullInt64{})
}

// ItemLabels snapshots the labels associated with item, in association
// order.
func (r *Runtime) ItemLabels(item ItemHandle) (LabelListHandle, error) {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	it, err := r.item(item)
	if err != nil {
		return 0, fmt.Errorf("item labels: %w", err)
	}
	ids, err := queryIDs(it.store.db,
		"SELECT label_id FROM item_labels WHERE item_id = ? ORDER BY rowid",
		it.id,
	)
	if err != nil {
		return 0, fmt.Errorf("item labels: %w", err)
	}
	return LabelListHandle(r.handles.alloc(&labelListObj{store: it.store, ids: ids})), nil
}

// DestroyItem frees an item handle. The record is untouched.
func (r *Runtime) DestroyItem(item ItemHandle) error {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	if _, err := lookup[*itemObj](r.handles, uint64(item)); err != nil {
		return fmt.Errorf("destroy item: %w", err)
	}
	_, err := r.handles.free(uint64(item))
	return err
}

// item resolves an item handle whose store is still live. The caller must
// hold the table lock.
func (r *Runtime) item(h ItemHandle) (*itemObj, error) {
	it, err := lookup[*itemObj](r.handles, uint64(h))
	if err != nil {
		return nil, err
	}
	if _, err := liveStore(it.store); err != nil {
		return nil, err
	}
	return it, nil
}

// checkItem resolves item without touching its row, so writes that turn
// out to be no-ops still reject a stale handle.
func (r *Runtime) checkItem(item ItemHandle, op string) error {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	if _, err := r.item(item); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// readItem scans one column of the item's row into dest. column is always
// one of the fixed names used in this file.
func (r *Runtime) readItem(item ItemHandle, column string, dest any) error {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	it, err := r.item(item)
	if err != nil {
		return fmt.Errorf("item %s: %w", column, err)
	}
	err = it.store.db.QueryRow("SELECT "+column+" FROM items WHERE item_id = ?", it.id).Scan(dest)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("item %d: %w", it.id, ErrNoRecord)
	}
	if err != nil {
		return fmt.Errorf("reading item %s: %w", column, err)
	}
	return nil
}

// writeItem sets one column of the item's row and fires the change callback.
func (r *Runtime) writeItem(item ItemHandle, column string, value any) error {
	changed, err := func() (func(), error) {
		r.handles.mu.Lock()
		defer r.handles.mu.Unlock()

		it, err := r.item(item)
		if err != nil {
			return nil, fmt.Errorf("set item %s: %w", column, err)
		}
		res, err := it.store.db.Exec(
			"UPDATE items SET "+column+" = ?, updated_at = ? WHERE item_id = ?",
			value, nowText(), it.id,
		)
		if err != nil {
			return nil, fmt.Errorf("writing item %s: %w", column, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, fmt.Errorf("item %d: %w", it.id, ErrNoRecord)
		}
		return it.store.onChanged, nil
	}()
	if err != nil {
		return err
	}
	notify(changed)
	return nil
}

func insertItemLabels(tx *sql.Tx, itemID int64, labelIDs []int64) error {
	for _, labelID := range labelIDs {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO item_labels (item_id, label_id) VALUES (?, ?)",
			itemID, labelID,
		); err != nil {
			return fmt.Errorf("associating label %d: %w", labelID, err)
		}
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
