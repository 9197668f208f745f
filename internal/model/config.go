package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Storage backend names.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// StorageConfig selects and locates the local key-value store.
type StorageConfig struct {
	// Backend is "sqlite" (default) or "bolt".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the database file. Empty means the default data directory.
	Path string `mapstructure:"path" yaml:"path"`
}

// SeedConfig controls the one-time remote seed fetch.
type SeedConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	Limit      int    `mapstructure:"limit" yaml:"limit"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns the seed fetch deadline.
func (c SeedConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level    string `mapstructure:"level" yaml:"level"`
	Encoding string `mapstructure:"encoding" yaml:"encoding"`
	Path     string `mapstructure:"path" yaml:"path"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`

	// DefaultView is "board" (three columns) or "list".
	DefaultView string `mapstructure:"default_view" yaml:"default_view"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Seed    SeedConfig    `mapstructure:"seed" yaml:"seed"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultSeedURL is the public mock API used for the initial task set.
const DefaultSeedURL = "https://jsonplaceholder.typicode.com"

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskboard/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultDataPath returns the database file for the given backend inside the
// configuration directory.
func DefaultDataPath(backend string) string {
	if backend == BackendBolt {
		return filepath.Join(configDir(), "taskboard.bolt")
	}
	return filepath.Join(configDir(), "taskboard.db")
}

// DefaultLogPath returns the log file location.
func DefaultLogPath() string {
	return filepath.Join(configDir(), "taskboard.log")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskboard")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{
			Backend: BackendSQLite,
		},
		Seed: SeedConfig{
			Enabled:    true,
			BaseURL:    DefaultSeedURL,
			Limit:      10,
			TimeoutSec: 10,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
		Display: DisplayConfig{
			Theme:       "default",
			DefaultView: "board",
		},
	}
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *AppConfig {
	return defaultAppConfig()
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("storage.backend", BackendSQLite)
	v.SetDefault("seed.enabled", true)
	v.SetDefault("seed.base_url", DefaultSeedURL)
	v.SetDefault("seed.limit", 10)
	v.SetDefault("seed.timeout_sec", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.default_view", "board")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *AppConfig) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendBolt:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Seed.Limit <= 0 {
		c.Seed.Limit = 10
	}
	if c.Seed.TimeoutSec <= 0 {
		c.Seed.TimeoutSec = 10
	}
	switch c.Display.DefaultView {
	case "board", "list":
	default:
		c.Display.DefaultView = "board"
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", cfg.Storage)
	v.Set("seed", cfg.Seed)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
