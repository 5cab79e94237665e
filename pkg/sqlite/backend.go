// Package sqlite provides the public factory for the embedded SQLite engine
// that backs a toodle store, keeping the engine itself internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/toodle/internal/native"
)

// NewLibrary creates a SQLite engine instance with an empty handle table.
// Pass it to toodle.Open.
//
// Example:
//
//	lib := sqlite.NewLibrary(nil)
//	store, err := toodle.Open(lib, cfg.StorePath())
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func NewLibrary(logger *slog.Logger) native.Library {
	return native.NewRuntime(native.WithLogger(logger))
}
