// Package handle provides ownership wrappers for native handles.
//
// A Ref owns exactly one handle and releases it exactly once. Borrow lends the
// handle for a single boundary call; Consume moves it out and leaves the Ref
// inert. Any borrow or consume after that fails with types.ErrUseAfterRelease
// (and panics in builds tagged toodledebug).
package handle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/toodle/pkg/types"
)

type state uint8

const (
	stateLive state = iota
	stateReleased
	stateConsumed
)

func (s state) String() string {
	switch s {
	case stateReleased:
		return "released"
	case stateConsumed:
		return "consumed"
	default:
		return "live"
	}
}

// Ref is the exclusive owner of one native handle of kind H.
type Ref[H ~uint64] struct {
	mu      sync.Mutex
	h       H
	release func(H) error
	state   state
}

// NewRef takes ownership of h; release is the native destroy call for its
// kind. A null handle means the native call that produced it failed, so it
// is rejected rather than wrapped.
func NewRef[H ~uint64](h H, release func(H) error) (*Ref[H], error) {
	if h == 0 {
		return nil, fmt.Errorf("null handle: %w", types.ErrNativeOperationFailed)
	}
	if release == nil {
		return nil, errors.New("handle: nil release func")
	}
	return &Ref[H]{h: h, release: release}, nil
}

// Borrow returns the handle for one boundary call without transferring
// ownership.
func (r *Ref[H]) Borrow() (H, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateLive {
		return 0, misuse("borrow", r.state)
	}
	return r.h, nil
}

// Consume transfers ownership of the handle to the caller. The Ref becomes
// inert: Release is then a no-op and Borrow fails.
func (r *Ref[H]) Consume() (H, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateLive {
		return 0, misuse("consume", r.state)
	}
	h := r.h
	r.h = 0
	r.state = stateConsumed
	return h, nil
}

// Release destroys the handle through exactly one native call. Releasing a
// released or consumed Ref does nothing. A failing native release still
// retires the Ref, since retrying could free the handle twice.
func (r *Ref[H]) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateLive {
		return nil
	}
	h := r.h
	r.h = 0
	r.state = stateReleased
	if err := r.release(h); err != nil {
		return fmt.Errorf("release: %w: %v", types.ErrNativeOperationFailed, err)
	}
	return nil
}

// Live reports whether the Ref still owns its handle.
func (r *Ref[H]) Live() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateLive
}

func misuse(op string, s state) error {
	err := fmt.Errorf("%s on %s handle: %w", op, s, types.ErrUseAfterRelease)
	if strict {
		panic(err)
	}
	return err
}
