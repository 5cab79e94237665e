// Package timestamp converts optional dates between the managed form
// (*time.Time, nil meaning unset) and the native form (*int64 seconds since
// the Unix epoch, nil meaning unset).
//
// Sub-second precision is truncated on the way in. Round trips are exact at
// one-second resolution.
package timestamp

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/toodle/internal/native"
	"github.com/mesh-intelligence/toodle/pkg/types"
)

// Representable range, in seconds since the epoch. It is the range the
// native engine can store.
const (
	MinSeconds = native.MinStorableSeconds
	MaxSeconds = native.MaxStorableSeconds
)

// ToNative returns a fresh seconds reference for t, or nil when t is nil.
// Values outside [MinSeconds, MaxSeconds] fail with types.ErrMarshallingRange.
func ToNative(t *time.Time) (*int64, error) {
	if t == nil {
		return nil, nil
	}
	secs := t.Unix()
	if secs < MinSeconds || secs > MaxSeconds {
		return nil, fmt.Errorf("%s: %w", t.UTC().Format(time.RFC3339), types.ErrMarshallingRange)
	}
	return &secs, nil
}

// FromNative returns the UTC point in time for a seconds reference, or nil
// when the reference is nil.
func FromNative(secs *int64) *time.Time {
	if secs == nil {
		return nil
	}
	t := time.Unix(*secs, 0).UTC()
	return &t
}

// Truncate drops sub-second precision and normalizes to UTC, yielding the
// value a round trip through the native form produces.
func Truncate(t time.Time) time.Time {
	return t.Truncate(time.Second).UTC()
}
