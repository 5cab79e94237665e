package native

import (
	"database/sql"
	"fmt"
	"math"
)

const microsPerSecond = 1_000_000

// Bounds of the seconds values the engine can store as microseconds.
const (
	MinStorableSeconds int64 = math.MinInt64 / microsPerSecond
	MaxStorableSeconds int64 = math.MaxInt64 / microsPerSecond
)

// toMicros converts a seconds reference into a nullable storage value.
func toMicros(seconds *int64) (sql.NullInt64, error) {
	if seconds == nil {
		return sql.NullInt64{}, nil
	}
	s := *seconds
	if s < MinStorableSeconds || s > MaxStorableSeconds {
		return sql.NullInt64{}, fmt.Errorf("%d seconds: %w", s, ErrDateRange)
	}
	return sql.NullInt64{Int64: s * microsPerSecond, Valid: true}, nil
}

// fromMicros returns a fresh seconds reference, or nil for NULL.
func fromMicros(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	s := v.Int64 / microsPerSecond
	if v.Int64%microsPerSecond < 0 {
		s--
	}
	return &s
}
