// Package cli implements the toodle command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/toodle/internal/logging"
	"github.com/mesh-intelligence/toodle/internal/paths"
	"github.com/mesh-intelligence/toodle/pkg/sqlite"
	"github.com/mesh-intelligence/toodle/pkg/toodle"
	"github.com/mesh-intelligence/toodle/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errSystem marks failures of the environment rather than of the input.
var errSystem = errors.New("system error")

func sysErr(err error) error {
	return fmt.Errorf("%w: %w", errSystem, err)
}

// app holds the state shared by one command invocation.
type app struct {
	flagConfigDir string
	flagDataDir   string
	jsonOut       bool
	yamlOut       bool

	configDir string
	cfg       types.Config
	logger    *slog.Logger
	logCloser io.Closer
}

// Execute runs the CLI with the process arguments and exits.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes the command line args and returns the exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	a := &app{logger: slog.New(slog.DiscardHandler)}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err != nil {
		a.logger.Error("command failed", "args", args, "error", err)
		fmt.Fprintln(stderr, "Error:", err)
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errSystem), errors.Is(err, types.ErrNativeOperationFailed):
		return exitSysError
	default:
		return exitUserError
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "toodle",
		Short:         "A to-do list with labels",
		Long:          "Toodle keeps to-do items and colored labels in a local SQLite store.",
		Version:       toodle.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.flagConfigDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/toodle)")
	root.PersistentFlags().StringVar(&a.flagDataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/toodle)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "output as JSON")
	root.PersistentFlags().BoolVar(&a.yamlOut, "yaml", false, "output as YAML")
	root.MarkFlagsMutuallyExclusive("json", "yaml")

	root.AddCommand(
		a.versionCmd(),
		a.initCmd(),
		a.itemCmd(),
		a.labelCmd(),
		a.exportCmd(),
	)
	return root
}

// setup resolves directories, loads config.yaml and starts file logging.
func (a *app) setup() error {
	configDir, err := paths.ResolveConfigDir(a.flagConfigDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = configDir

	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	dataDir, err := paths.ResolveDataDir(a.flagDataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return sysErr(fmt.Errorf("resolve data dir: %w", err))
	}

	a.cfg = types.Config{
		Backend:  v.GetString(cfgKeyBackend),
		DataDir:  dataDir,
		LogLevel: v.GetString(cfgKeyLogLevel),
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", configDir, err)
	}

	logger, closer, err := logging.Init(dataDir, a.cfg.LogLevel)
	if err != nil {
		return sysErr(fmt.Errorf("init logging: %w", err))
	}
	a.logger, a.logCloser = logger, closer
	a.logger.Debug("config loaded", "config_dir", configDir, "data_dir", dataDir)
	return nil
}

// withStore opens the configured store for the duration of fn.
func (a *app) withStore(fn func(*toodle.Store) error) error {
	lib := sqlite.NewLibrary(a.logger)
	return toodle.WithStore(lib, a.cfg.StorePath(), fn, toodle.WithLogger(a.logger))
}
