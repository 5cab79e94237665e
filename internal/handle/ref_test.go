//go:build !toodledebug

package handle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/toodle/pkg/types"
)

type testHandle uint64

// releaseCounter records native release calls per handle.
type releaseCounter struct {
	calls map[testHandle]int
	err   error
}

func newReleaseCounter() *releaseCounter {
	return &releaseCounter{calls: make(map[testHandle]int)}
}

func (c *releaseCounter) release(h testHandle) error {
	c.calls[h]++
	return c.err
}

func TestNewRef(t *testing.T) {
	t.Run("null handle is a native failure", func(t *testing.T) {
		c := newReleaseCounter()
		ref, err := NewRef(testHandle(0), c.release)
		assert.Nil(t, ref)
		assert.ErrorIs(t, err, types.ErrNativeOperationFailed)
	})

	t.Run("nil release func is rejected", func(t *testing.T) {
		_, err := NewRef[testHandle](7, nil)
		assert.Error(t, err)
	})
}

func TestRef_Release(t *testing.T) {
	c := newReleaseCounter()
	ref, err := NewRef(testHandle(7), c.release)
	require.NoError(t, err)
	assert.True(t, ref.Live())

	require.NoError(t, ref.Release())
	require.NoError(t, ref.Release())
	require.NoError(t, ref.Release())

	assert.Equal(t, 1, c.calls[7], "exactly one native release")
	assert.False(t, ref.Live())
}

func TestRef_ReleaseFailure(t *testing.T) {
	c := newReleaseCounter()
	c.err = errors.New("boom")
	ref, err := NewRef(testHandle(3), c.release)
	require.NoError(t, err)

	err = ref.Release()
	assert.ErrorIs(t, err, types.ErrNativeOperationFailed)
	require.NoError(t, ref.Release(), "a failed release is not retried")
	assert.Equal(t, 1, c.calls[3])
}

func TestRef_Borrow(t *testing.T) {
	c := newReleaseCounter()
	ref, err := NewRef(testHandle(9), c.release)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		h, err := ref.Borrow()
		require.NoError(t, err)
		assert.Equal(t, testHandle(9), h)
	}
	assert.Zero(t, c.calls[9], "borrowing never releases")
}

func TestRef_UseAfterRelease(t *testing.T) {
	tests := []struct {
		name   string
		retire func(*Ref[testHandle]) error
	}{
		{
			name:   "after release",
			retire: func(r *Ref[testHandle]) error { return r.Release() },
		},
		{
			name: "after consume",
			retire: func(r *Ref[testHandle]) error {
				_, err := r.Consume()
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newReleaseCounter()
			ref, err := NewRef(testHandle(11), c.release)
			require.NoError(t, err)
			require.NoError(t, tt.retire(ref))

			for i := 0; i < 100; i++ {
				_, err := ref.Borrow()
				require.ErrorIs(t, err, types.ErrUseAfterRelease)
				_, err = ref.Consume()
				require.ErrorIs(t, err, types.ErrUseAfterRelease)
			}
		})
	}
}

func TestRef_Consume(t *testing.T) {
	c := newReleaseCounter()
	ref, err := NewRef(testHandle(5), c.release)
	require.NoError(t, err)

	h, err := ref.Consume()
	require.NoError(t, err)
	assert.Equal(t, testHandle(5), h)

	require.NoError(t, ref.Release())
	assert.Zero(t, c.calls[5], "release after consume is a no-op")

	adopted, err := NewRef(h, c.release)
	require.NoError(t, err)
	require.NoError(t, adopted.Release())
	assert.Equal(t, 1, c.calls[5], "the new owner releases exactly once")
}
