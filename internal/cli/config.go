package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/toodle/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend  = "backend"
	cfgKeyDataDir  = "data_dir"
	cfgKeyLogLevel = "log_level"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# toodle configuration

# Storage backend
backend: sqlite

# Data directory holding todolist.db (overridable by --data-dir)
# data_dir:

# One of debug, info, warn, error
log_level: info
`

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. TOODLE_LOG_LEVEL overrides log_level.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, sysErr(fmt.Errorf("create config dir: %w", err))
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, sysErr(fmt.Errorf("ensure default config: %w", err))
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, types.LogLevelInfo)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("TOODLE")
	if err := v.BindEnv(cfgKeyLogLevel); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
