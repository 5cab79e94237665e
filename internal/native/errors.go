package native

import "errors"

// Engine errors. The toodle facades convert every one of these into
// types.ErrNativeOperationFailed before they reach application code.
var (
	ErrInvalidHandle   = errors.New("invalid handle")
	ErrStoreDestroyed  = errors.New("store handle destroyed")
	ErrForeignHandle   = errors.New("handle belongs to another store")
	ErrIndexOutOfRange = errors.New("list index out of range")
	ErrNoRecord        = errors.New("no such record")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDateRange       = errors.New("date outside storable range")
)
