package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntime_CreateLabel(t *testing.T) {
	r, store := openTestStore(t)

	label, err := r.CreateLabel(store, "P0", "#B80000")
	require.NoError(t, err)
	defer r.DestroyLabel(label)

	name, err := r.LabelName(label)
	require.NoError(t, err)
	assert.Equal(t, "P0", name)

	color, err := r.LabelColor(label)
	require.NoError(t, err)
	assert.Equal(t, "#B80000", color)

	t.Run("same name upserts the color", func(t *testing.T) {
		again, err := r.CreateLabel(store, "P0", "#000000")
		require.NoError(t, err)
		defer r.DestroyLabel(again)

		firstUUID, err := r.LabelUUID(label)
		require.NoError(t, err)
		secondUUID, err := r.LabelUUID(again)
		require.NoError(t, err)
		assert.Equal(t, firstUUID, secondUUID)

		color, err := r.LabelColor(label)
		require.NoError(t, err)
		assert.Equal(t, "#000000", color)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		_, err := r.CreateLabel(store, "", "#000000")
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestRuntime_LabelLookups(t *testing.T) {
	r, store := openTestStore(t)

	for _, name := range []string{"label1", "label2", "label3"} {
		h, err := r.CreateLabel(store, name, "#000000")
		require.NoError(t, err)
		require.NoError(t, r.DestroyLabel(h))
	}

	t.Run("all labels", func(t *testing.T) {
		list, err := r.AllLabels(store)
		require.NoError(t, err)
		assert.Equal(t, []string{"label1", "label2", "label3"}, labelNames(t, r, list))
	})

	t.Run("by name", func(t *testing.T) {
		h, err := r.LabelByName(store, "label2")
		require.NoError(t, err)
		defer r.DestroyLabel(h)
		name, err := r.LabelName(h)
		require.NoError(t, err)
		assert.Equal(t, "label2", name)

		_, err = r.LabelByName(store, "doesn't exist")
		assert.ErrorIs(t, err, ErrNoRecord)
	})
}
