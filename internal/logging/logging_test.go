package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/toodle/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrLogLevelUnknown)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("quiet")
	logger.Warn("loud", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "msg=loud")
	assert.Contains(t, out, "key=value")
}

func TestInit(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	logger, closer, err := Init(dir, "debug")
	require.NoError(t, err)

	logger.Debug("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "logs", FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello")
	assert.Same(t, logger, slog.Default())

	_, _, err = Init(dir, "loud")
	assert.ErrorIs(t, err, types.ErrLogLevelUnknown)
}
