package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/toodle/internal/native"
	"github.com/mesh-intelligence/toodle/internal/paths"
	"github.com/mesh-intelligence/toodle/pkg/toodle"
	"github.com/mesh-intelligence/toodle/pkg/types"
)

// testEnv runs the CLI in-process against temp config and data dirs.
type testEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
}

type result struct {
	code   int
	stdout string
	stderr string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv(paths.EnvConfigDir, "")
	t.Setenv(paths.EnvDataDir, "")
	t.Setenv("TOODLE_LOG_LEVEL", "")

	root := t.TempDir()
	return &testEnv{
		t:         t,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

func (e *testEnv) run(args ...string) result {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := Run(full, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	r := e.run(args...)
	require.Equal(e.t, exitSuccess, r.code, "toodle %s\nstderr: %s", strings.Join(args, " "), r.stderr)
	return r.stdout
}

func decodeJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun("version")
	assert.Contains(t, out, "toodle v"+toodle.Version)
	assert.Contains(t, out, modulePath)
}

func TestInit(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun("init")
	assert.Contains(t, out, "toodle initialized")

	for _, path := range []string{
		filepath.Join(env.configDir, configFileExt),
		filepath.Join(env.dataDir, types.StoreFileName),
		filepath.Join(env.dataDir, "logs", "toodle.log"),
	} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}

	t.Run("is idempotent", func(t *testing.T) {
		env.mustRun("init")
	})
}

func TestItemWorkflow(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init")

	label := decodeJSON[types.LabelRecord](t, env.mustRun("--json", "label", "add", "P0", "#B80000"))
	assert.Equal(t, "P0", label.Name)
	assert.Equal(t, "#B80000", label.Color)

	created := decodeJSON[types.ItemRecord](t, env.mustRun("--json", "item", "add", "Ship release", "--due", "2024-03-01", "--label", "P0"))
	assert.Equal(t, "Ship release", created.Name)
	require.NotNil(t, created.DueDate)
	assert.Nil(t, created.CompletionDate)
	require.Len(t, created.Labels, 1)
	assert.Equal(t, "P0", created.Labels[0].Name)

	env.mustRun("item", "add", "Buy milk")

	t.Run("list", func(t *testing.T) {
		items := decodeJSON[[]types.ItemRecord](t, env.mustRun("--json", "item", "list"))
		require.Len(t, items, 2)
		assert.Equal(t, "Ship release", items[0].Name)
		assert.Equal(t, "Buy milk", items[1].Name)

		byLabel := decodeJSON[[]types.ItemRecord](t, env.mustRun("--json", "item", "list", "--label", "P0"))
		require.Len(t, byLabel, 1)
		assert.Equal(t, created.UUID, byLabel[0].UUID)

		text := env.mustRun("item", "list")
		assert.Contains(t, text, "Buy milk")
		assert.Contains(t, text, "P0")
	})

	t.Run("update keeps labels unless told otherwise", func(t *testing.T) {
		updated := decodeJSON[types.ItemRecord](t, env.mustRun("--json", "item", "update", created.UUID, "--name", "Ship 1.0"))
		assert.Equal(t, "Ship 1.0", updated.Name)
		require.Len(t, updated.Labels, 1)
		require.NotNil(t, updated.DueDate)
		assert.True(t, updated.DueDate.Equal(*created.DueDate))
	})

	t.Run("done and undone", func(t *testing.T) {
		done := decodeJSON[types.ItemRecord](t, env.mustRun("--json", "item", "done", created.UUID))
		assert.True(t, done.Done())

		open := decodeJSON[[]types.ItemRecord](t, env.mustRun("--json", "item", "list", "--open"))
		require.Len(t, open, 1)
		assert.Equal(t, "Buy milk", open[0].Name)

		reopened := decodeJSON[types.ItemRecord](t, env.mustRun("--json", "item", "undone", created.UUID))
		assert.False(t, reopened.Done())
	})

	t.Run("clear labels and due date", func(t *testing.T) {
		cleared := decodeJSON[types.ItemRecord](t, env.mustRun("--json", "item", "update", created.UUID, "--clear-labels"))
		assert.Empty(t, cleared.Labels)

		noDue := decodeJSON[types.ItemRecord](t, env.mustRun("--json", "item", "clear-due", created.UUID))
		assert.Nil(t, noDue.DueDate)
	})

	t.Run("show as yaml", func(t *testing.T) {
		var rec types.ItemRecord
		require.NoError(t, yaml.Unmarshal([]byte(env.mustRun("--yaml", "item", "show", created.UUID)), &rec))
		assert.Equal(t, created.UUID, rec.UUID)
		assert.Equal(t, "Ship 1.0", rec.Name)
	})

	t.Run("label list", func(t *testing.T) {
		labels := decodeJSON[[]types.LabelRecord](t, env.mustRun("--json", "label", "list"))
		require.Len(t, labels, 1)
		assert.Equal(t, label.UUID, labels[0].UUID)
	})

	t.Run("export", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		env.mustRun("export", "--dir", dir)
		labels, items, err := toodle.ReadExport(dir)
		require.NoError(t, err)
		assert.Len(t, labels, 1)
		assert.Len(t, items, 2)
	})
}

func TestExitCodes(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("init")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "missing argument", args: []string{"item", "add"}, want: exitUserError},
		{name: "malformed uuid", args: []string{"item", "show", "nope"}, want: exitUserError},
		{name: "unknown uuid", args: []string{"item", "show", "0190a6a4-0000-7000-8000-000000000000"}, want: exitUserError},
		{name: "bad color", args: []string{"label", "add", "P0", "red"}, want: exitUserError},
		{name: "unknown label", args: []string{"item", "add", "x", "--label", "missing"}, want: exitUserError},
		{name: "bad date", args: []string{"item", "add", "x", "--due", "tomorrow"}, want: exitUserError},
		{name: "json and yaml", args: []string{"--json", "--yaml", "label", "list"}, want: exitUserError},
		{name: "unknown command", args: []string{"frobnicate"}, want: exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := env.run(tt.args...)
			assert.Equal(t, tt.want, r.code, "stderr: %s", r.stderr)
			assert.Contains(t, r.stderr, "Error:")
		})
	}
}

func TestConfig(t *testing.T) {
	t.Run("default file is written", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustRun("label", "list")
		data, err := os.ReadFile(filepath.Join(env.configDir, configFileExt))
		require.NoError(t, err)
		assert.Equal(t, defaultConfigYAML, string(data))
	})

	t.Run("data_dir from config", func(t *testing.T) {
		env := newTestEnv(t)
		dataDir := filepath.Join(t.TempDir(), "from-config")
		require.NoError(t, os.MkdirAll(env.configDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(env.configDir, configFileExt),
			[]byte("backend: sqlite\ndata_dir: "+dataDir+"\n"), 0o644))

		var stdout, stderr bytes.Buffer
		code := Run([]string{"--config-dir", env.configDir, "init"}, &stdout, &stderr)
		require.Equal(t, exitSuccess, code, stderr.String())
		_, err := os.Stat(filepath.Join(dataDir, types.StoreFileName))
		assert.NoError(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, os.MkdirAll(env.configDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(env.configDir, configFileExt), []byte("backend: postgres\n"), 0o644))
		r := env.run("label", "list")
		assert.Equal(t, exitUserError, r.code)
		assert.Contains(t, r.stderr, types.ErrBackendUnknown.Error())
	})

	t.Run("log level from env", func(t *testing.T) {
		env := newTestEnv(t)
		t.Setenv("TOODLE_LOG_LEVEL", "shout")
		r := env.run("label", "list")
		assert.Equal(t, exitUserError, r.code)
		assert.Contains(t, r.stderr, "unknown log level")
	})
}

func TestSnapshotItems(t *testing.T) {
	rt := native.NewRuntime()
	s, err := toodle.Open(rt, filepath.Join(t.TempDir(), types.StoreFileName))
	require.NoError(t, err)
	defer s.Close()

	p0, err := s.CreateLabel("P0", "#B80000")
	require.NoError(t, err)
	item, err := s.CreateItem("labelled", nil, []*toodle.Label{p0})
	require.NoError(t, err)
	require.NoError(t, item.Close())
	require.NoError(t, p0.Close())
	storeOnly := rt.LiveHandles()

	items, err := s.AllItems()
	require.NoError(t, err)
	recs, err := snapshotItems(items)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Len(t, recs[0].Labels, 1)
	assert.Equal(t, "P0", recs[0].Labels[0].Name)
	assert.Equal(t, storeOnly, rt.LiveHandles(), "closing items releases their labels")
}
