package native

import (
	"database/sql"
	"errors"
	"fmt"
)

// CreateLabel stores a label and returns a handle to it. Label names are
// unique per store: creating an existing name updates its color and returns a
// handle to the existing record.
func (r *Runtime) CreateLabel(store StoreHandle, name, color string) (LabelHandle, error) {
	if name == "" {
		return 0, fmt.Errorf("create label: empty name: %w", ErrInvalidArgument)
	}

	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	st, err := r.store(store)
	if err != nil {
		return 0, fmt.Errorf("create label: %w", err)
	}

	_, err = st.db.Exec(
		`INSERT INTO labels (uuid, name, color) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET color = excluded.color`,
		newUUID(), name, color,
	)
	if err != nil {
		return 0, fmt.Errorf("persisting label %q: %w", name, err)
	}

	id, err := labelIDByName(st.db, name)
	if err != nil {
		return 0, fmt.Errorf("create label: %w", err)
	}
	return LabelHandle(r.handles.alloc(&labelObj{store: st, id: id})), nil
}

// LabelByName returns a handle to the label with the given name, or
// ErrNoRecord.
func (r *Runtime) LabelByName(store StoreHandle, name string) (LabelHandle, error) {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	st, err := r.store(store)
	if err != nil {
		return 0, fmt.Errorf("label by name: %w", err)
	}
	id, err := labelIDByName(st.db, name)
	if err != nil {
		return 0, fmt.Errorf("label by name %q: %w", name, err)
	}
	return LabelHandle(r.handles.alloc(&labelObj{store: st, id: id})), nil
}

// AllLabels snapshots every label in storage order.
func (r *Runtime) AllLabels(store StoreHandle) (LabelListHandle, error) {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	st, err := r.store(store)
	if err != nil {
		return 0, fmt.Errorf("all labels: %w", err)
	}
	ids, err := queryIDs(st.db, "SELECT label_id FROM labels ORDER BY label_id")
	if err != nil {
		return 0, fmt.Errorf("all labels: %w", err)
	}
	return LabelListHandle(r.handles.alloc(&labelListObj{store: st, ids: ids})), nil
}

// LabelUUID returns the label's record identity.
func (r *Runtime) LabelUUID(label LabelHandle) (string, error) {
	return r.labelText(label, "uuid")
}

// LabelName returns the label's name.
func (r *Runtime) LabelName(label LabelHandle) (string, error) {
	return r.labelText(label, "name")
}

// LabelColor returns the label's color string.
func (r *Runtime) LabelColor(label LabelHandle) (string, error) {
	return r.labelText(label, "color")
}

// DestroyLabel frees a label handle. The record is untouched.
func (r *Runtime) DestroyLabel(label LabelHandle) error {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	if _, err := lookup[*labelObj](r.handles, uint64(label)); err != nil {
		return fmt.Errorf("destroy label: %w", err)
	}
	_, err := r.handles.free(uint64(label))
	return err
}

// labelText reads one text column of the label's row.
func (r *Runtime) labelText(label LabelHandle, column string) (string, error) {
	r.handles.mu.Lock()
	defer r.handles.mu.Unlock()

	l, err := r.label(label)
	if err != nil {
		return "", fmt.Errorf("label %s: %w", column, err)
	}
	var v string
	// column is one of a fixed set chosen by the callers above.
	err = l.store.db.QueryRow("SELECT "+column+" FROM labels WHERE label_id = ?", l.id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("label %d: %w", l.id, ErrNoRecord)
	}
	if err != nil {
		return "", fmt.Errorf("reading label %s: %w", column, err)
	}
	return v, nil
}

// label resolves a label handle whose store is still live. The caller must
// hold the table lock.
func (r *Runtime) label(h LabelHandle) (*labelObj, error) {
	l, err := lookup[*labelObj](r.handles, uint64(h))
	if err != nil {
		return nil, err
	}
	if _, err := liveStore(l.store); err != nil {
		return nil, err
	}
	return l, nil
}

// resolveLabels copies the row ids behind a borrowed handle array. Every
// handle must belong to st. The caller must hold the table lock.
func (r *Runtime) resolveLabels(st *storeObj, labels []LabelHandle) ([]int64, error) {
	ids := make([]int64, 0, len(labels))
	for _, h := range labels {
		l, err := r.label(h)
		if err != nil {
			return nil, err
		}
		if l.store != st {
			return nil, fmt.Errorf("label handle %d: %w", uint64(h), ErrForeignHandle)
		}
		ids = append(ids, l.id)
	}
	return ids, nil
}

func labelIDByName(db *sql.DB, name string) (int64, error) {
	var id int64
	err := db.QueryRow("SELECT label_id FROM labels WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoRecord
	}
	if err != nil {
		return 0, fmt.Errorf("looking up label: %w", err)
	}
	return id, nil
}

func queryIDs(db queryer, query string, args ...any) ([]int64, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}
