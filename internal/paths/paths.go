// Package paths resolves where toodle keeps its configuration and its store.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppDirName is the directory name used under every platform base directory.
const AppDirName = "toodle"

// Environment variable overrides.
const (
	EnvConfigDir = "TOODLE_CONFIG_DIR"
	EnvDataDir   = "TOODLE_DATA_DIR"
)

// platform holds the OS lookups so tests can replace them.
var platform = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/toodle (fallback ~/.config/toodle)
// Others:  os.UserConfigDir()/toodle
func DefaultConfigDir() (string, error) {
	return platformDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/toodle (fallback ~/.local/share/toodle)
// Others:  os.UserConfigDir()/toodle
func DefaultDataDir() (string, error) {
	return platformDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func platformDir(xdgVar, homeRel string) (string, error) {
	if platform.goos != "linux" {
		dir, err := platform.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppDirName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppDirName), nil
	}
	home, err := platform.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, AppDirName), nil
}

// ResolveConfigDir picks the configuration directory: flag, then
// TOODLE_CONFIG_DIR, then DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir picks the data directory: flag, then the config file value,
// then TOODLE_DATA_DIR, then DefaultDataDir.
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(DefaultDataDir, flag, configValue, os.Getenv(EnvDataDir))
}

// resolve returns the first non-empty candidate made absolute, or the
// platform default.
func resolve(fallback func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return fallback()
}
