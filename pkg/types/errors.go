package types

import "errors"

// Handle lifetime errors.
var (
	// ErrUseAfterRelease reports a borrow or consume of a handle wrapper that
	// was already released or consumed. It is a programming error.
	ErrUseAfterRelease = errors.New("handle used after release")

	// ErrStoreClosed reports an operation on a store that has been closed.
	ErrStoreClosed = errors.New("store is closed")
)

// Boundary errors. Every failure reported by the native engine reaches
// callers wrapped in ErrNativeOperationFailed.
var (
	ErrNativeOperationFailed = errors.New("native operation failed")
	ErrMarshallingRange      = errors.New("timestamp outside representable range")
)

// Entity errors.
var (
	ErrNotFound     = errors.New("entity not found")
	ErrInvalidName  = errors.New("invalid name")
	ErrInvalidColor = errors.New("invalid color")
	ErrInvalidUUID  = errors.New("invalid uuid")
)
