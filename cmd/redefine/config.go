package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/dshills/redefine-mcp/internal/session"
	"github.com/dshills/redefine-mcp/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix        = "REDEFINE"
	defaultConfigDir = ".redefine"

	cfgKeyArtifactDir = "artifact_dir"
	cfgKeyExtension   = "extension"
	cfgKeyMode        = "mode"
	cfgKeyBlacklist   = "blacklist"
	cfgKeyDBPath      = "db_path"
	cfgKeyCacheSize   = "cache_size"
	cfgKeyWorkers     = "workers"

	defaultCacheSize = 256
	defaultWorkers   = 4
)

// defaultConfigYAML is written to config.yaml on first run
const defaultConfigYAML = `# redefine configuration

# Where unit artifacts are written (default: <config dir>/units)
# artifact_dir:

# Artifact file extension
extension: .ul

# Publishing strategy: manifest or reload
mode: manifest

# Exported names that are never published into Main
blacklist:
  - eval

# Reload history database (default: <config dir>/history.db, "off" disables)
# db_path:

# Classifier cache entries, 0 disables caching
cache_size: 256
`

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. A missing config.yaml is not an error.
// Environment variables prefixed with REDEFINE_ override the file.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyArtifactDir, filepath.Join(configDir, "units"))
	v.SetDefault(cfgKeyExtension, ".ul")
	v.SetDefault(cfgKeyMode, string(types.ModeManifest))
	v.SetDefault(cfgKeyBlacklist, []string{"eval"})
	v.SetDefault(cfgKeyDBPath, filepath.Join(configDir, "history.db"))
	v.SetDefault(cfgKeyCacheSize, defaultCacheSize)
	v.SetDefault(cfgKeyWorkers, defaultWorkers)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureDefaultConfigFile creates config.yaml if it does not exist
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

// resolveConfigDir applies --config-dir > REDEFINE_CONFIG_DIR > $(CWD)/.redefine
func resolveConfigDir(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(envPrefix + "_CONFIG_DIR"); env != "" {
		return env, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return filepath.Join(cwd, defaultConfigDir), nil
}

// sessionConfig builds a session configuration from viper values
func sessionConfig(v *viper.Viper) (*session.Config, error) {
	mode := types.PublishMode(v.GetString(cfgKeyMode))
	if err := types.ValidateMode(mode); err != nil {
		return nil, fmt.Errorf("%w: %q", err, mode)
	}

	dbPath := v.GetString(cfgKeyDBPath)
	if dbPath == "off" {
		dbPath = ""
	}

	return &session.Config{
		ArtifactDir: v.GetString(cfgKeyArtifactDir),
		Extension:   v.GetString(cfgKeyExtension),
		Mode:        mode,
		Blacklist:   v.GetStringSlice(cfgKeyBlacklist),
		CacheSize:   v.GetInt(cfgKeyCacheSize),
		DBPath:      dbPath,
		Workers:     v.GetInt(cfgKeyWorkers),
	}, nil
}
