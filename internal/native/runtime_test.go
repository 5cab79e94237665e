package native

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore opens a store in a temp dir and destroys it at cleanup.
func openTestStore(t *testing.T) (*Runtime, StoreHandle) {
	t.Helper()
	r := NewRuntime()
	store, err := r.OpenStore(filepath.Join(t.TempDir(), "todolist.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.DestroyStore(store)
	})
	return r, store
}

func int64p(v int64) *int64 { return &v }

func TestRuntime_OpenStore(t *testing.T) {
	t.Run("creates the backing file and parent directories", func(t *testing.T) {
		r := NewRuntime()
		path := filepath.Join(t.TempDir(), "nested", "dir", "todolist.db")

		store, err := r.OpenStore(path)
		require.NoError(t, err)
		assert.NotZero(t, store)

		_, err = os.Stat(path)
		assert.NoError(t, err)
		require.NoError(t, r.DestroyStore(store))
		assert.Equal(t, 0, r.LiveHandles())
	})

	t.Run("empty path is rejected", func(t *testing.T) {
		r := NewRuntime()
		_, err := r.OpenStore("")
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("reopening keeps records", func(t *testing.T) {
		r := NewRuntime()
		path := filepath.Join(t.TempDir(), "todolist.db")

		store, err := r.OpenStore(path)
		require.NoError(t, err)
		item, err := r.CreateItem(store, "persisted", nil, nil)
		require.NoError(t, err)
		require.NoError(t, r.DestroyItem(item))
		require.NoError(t, r.DestroyStore(store))

		store, err = r.OpenStore(path)
		require.NoError(t, err)
		defer r.DestroyStore(store)

		list, err := r.AllItems(store)
		require.NoError(t, err)
		defer r.DestroyItemList(list)
		n, err := r.ItemListCount(list)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestRuntime_DestroyStore(t *testing.T) {
	r := NewRuntime()
	store, err := r.OpenStore(filepath.Join(t.TempDir(), "todolist.db"))
	require.NoError(t, err)

	item, err := r.CreateItem(store, "orphan", nil, nil)
	require.NoError(t, err)

	require.NoError(t, r.DestroyStore(store))

	t.Run("second destroy fails", func(t *testing.T) {
		assert.ErrorIs(t, r.DestroyStore(store), ErrInvalidHandle)
	})

	t.Run("record handles outliving the store fail", func(t *testing.T) {
		_, err := r.ItemName(item)
		assert.ErrorIs(t, err, ErrStoreDestroyed)
	})

	t.Run("record handles can still be freed", func(t *testing.T) {
		require.NoError(t, r.DestroyItem(item))
		assert.Equal(t, 0, r.LiveHandles())
	})
}

func TestRuntime_HandleKinds(t *testing.T) {
	r, store := openTestStore(t)

	label, err := r.CreateLabel(store, "P0", "#B80000")
	require.NoError(t, err)
	defer r.DestroyLabel(label)

	t.Run("null handle is invalid", func(t *testing.T) {
		_, err := r.ItemName(0)
		assert.ErrorIs(t, err, ErrInvalidHandle)
	})

	t.Run("label handle is not an item handle", func(t *testing.T) {
		_, err := r.ItemName(ItemHandle(label))
		assert.ErrorIs(t, err, ErrInvalidHandle)
	})

	t.Run("destroying with the wrong kind leaves the handle live", func(t *testing.T) {
		assert.ErrorIs(t, r.DestroyItem(ItemHandle(label)), ErrInvalidHandle)
		name, err := r.LabelName(label)
		require.NoError(t, err)
		assert.Equal(t, "P0", name)
	})

	t.Run("double destroy is reported", func(t *testing.T) {
		other, err := r.LabelByName(store, "P0")
		require.NoError(t, err)
		require.NoError(t, r.DestroyLabel(other))
		assert.ErrorIs(t, r.DestroyLabel(other), ErrInvalidHandle)
	})
}

func TestRuntime_OnItemsChanged(t *testing.T) {
	r, store := openTestStore(t)

	calls := 0
	require.NoError(t, r.OnItemsChanged(store, func() { calls++ }))
	assert.Equal(t, 1, calls, "callback fires once on registration")

	item, err := r.CreateItem(store, "watched", nil, nil)
	require.NoError(t, err)
	defer r.DestroyItem(item)
	assert.Equal(t, 2, calls)

	require.NoError(t, r.UpdateItem(store, item, nil, int64p(100), nil, nil))
	assert.Equal(t, 3, calls)

	require.NoError(t, r.ItemSetCompletionDate(item, int64p(200)))
	assert.Equal(t, 4, calls)

	t.Run("callback may call back into the engine", func(t *testing.T) {
		var seen int
		require.NoError(t, r.OnItemsChanged(store, func() {
			list, err := r.AllItems(store)
			if err != nil {
				return
			}
			seen, _ = r.ItemListCount(list)
			_ = r.DestroyItemList(list)
		}))
		assert.Equal(t, 1, seen)
	})
}
