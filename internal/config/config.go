// Package config loads daemon configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all daemon settings.
type Config struct {
	// DataDir is where the record database and preferences live.
	DataDir string `mapstructure:"data_dir"`

	// Remote is the cloud document store endpoint.
	Remote RemoteConfig `mapstructure:"remote"`

	// PageSize overrides the cache page size (default 50).
	PageSize int `mapstructure:"page_size"`

	// CredentialInterval is the credential-rotation timer period.
	CredentialInterval time.Duration `mapstructure:"credential_interval"`

	// Log configures the structured logger.
	Log LogConfig `mapstructure:"log"`
}

// RemoteConfig points at the PostgREST endpoint.
type RemoteConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
	Table  string `mapstructure:"table"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Load reads configuration from the given file (optional), falling back
// to defaults and VOXNOTE_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("remote.table", "transcriptions")
	v.SetDefault("page_size", 50)
	v.SetDefault("credential_interval", 10*time.Minute)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("VOXNOTE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// PrefsPath returns the preference file location under the data dir.
func (c *Config) PrefsPath() string {
	return filepath.Join(c.DataDir, "prefs.json")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".voxnote")
}
