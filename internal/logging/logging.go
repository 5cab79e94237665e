package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/toodle/pkg/types"
)

// FileName is the log file written inside the data directory.
const FileName = "toodle.log"

// Init opens <dataDir>/logs/toodle.log for appending and installs a text
// handler at the given level as the slog default. The returned closer
// flushes and closes the file.
func Init(dataDir, level string) (*slog.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(logDir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	logger := New(file, lvl)
	slog.SetDefault(logger)
	return logger, file, nil
}

// New returns a text logger writing to w at lvl.
func New(w io.Writer, lvl slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// ParseLevel maps a config log level to a slog level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case types.LogLevelDebug:
		return slog.LevelDebug, nil
	case "", types.LogLevelInfo:
		return slog.LevelInfo, nil
	case types.LogLevelWarn:
		return slog.LevelWarn, nil
	case types.LogLevelError:
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log level %q: %w", level, types.ErrLogLevelUnknown)
	}
}
