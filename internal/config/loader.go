package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigPaths holds the path to the sender's configuration file.
type ConfigPaths struct {
	Main string // Path to streamsend.toml
}

// DefaultConfigPaths returns the default configuration file path.
func DefaultConfigPaths() ConfigPaths {
	return ConfigPaths{Main: "streamsend.toml"}
}

// ConfigPathsFromDir builds ConfigPaths rooted at configDir.
func ConfigPathsFromDir(configDir string) ConfigPaths {
	return ConfigPaths{Main: filepath.Join(configDir, "streamsend.toml")}
}

// LoadConfig loads configuration from multiple sources in priority order:
//  1. Default values
//  2. Configuration file (streamsend.toml)
//  3. Environment variables (STREAMSEND_ prefix)
func LoadConfig(paths ConfigPaths) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := loadMainConfig(v, paths.Main); err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	v.SetEnvPrefix("STREAMSEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.configPath = paths.Main

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadMainConfig loads the main configuration file. A missing file is not
// an error: defaults and environment variables are enough to run.
func loadMainConfig(v *viper.Viper, configPath string) error {
	if configPath == "" {
		return fmt.Errorf("config path cannot be empty")
	}

	v.SetConfigFile(configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	return nil
}

// LoadConfigFromDir loads configuration from a directory containing streamsend.toml.
func LoadConfigFromDir(configDir string) (*Config, error) {
	return LoadConfig(ConfigPathsFromDir(configDir))
}

// LoadDefaultConfig loads configuration from the default location.
func LoadDefaultConfig() (*Config, error) {
	return LoadConfig(DefaultConfigPaths())
}
