package types

import (
	"errors"
	"path/filepath"
)

// StoreFileName is the backing file created inside DataDir.
const StoreFileName = "todolist.db"

// Config holds backend selection and parameters for opening a store.
type Config struct {
	Backend  string `json:"backend" yaml:"backend"`
	DataDir  string `json:"data_dir" yaml:"data_dir"`
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Config validation errors.
var (
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrLogLevelUnknown = errors.New("unknown log level")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownLogLevels = map[string]bool{
	"":            true,
	LogLevelDebug: true,
	LogLevelInfo:  true,
	LogLevelWarn:  true,
	LogLevelError: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if !knownLogLevels[c.LogLevel] {
		return ErrLogLevelUnknown
	}
	return nil
}

// StorePath returns the path of the backing store file. An empty DataDir
// resolves to the working directory.
func (c Config) StorePath() string {
	dir := c.DataDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, StoreFileName)
}
