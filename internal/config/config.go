package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all weekly configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Where tasks and the reset marker live
	Storage StorageConfig `yaml:"storage"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Driver  string `yaml:"driver"` // sqlite, sqlite3, file, memory
	Path    string `yaml:"path"`   // relative paths resolve against the home directory
	Timeout string `yaml:"timeout"`
}

// UIConfig configures the interactive board.
type UIConfig struct {
	Theme       string `yaml:"theme"` // auto, light, dark
	WatchStore  bool   `yaml:"watch_store"`
	TimeDisplay string `yaml:"time_display"` // human, clock
}

// Drivers lists the supported storage drivers.
var Drivers = []string{"sqlite", "sqlite3", "file", "memory"}

// Themes lists the accepted ui.theme values.
var Themes = []string{"auto", "light", "dark"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "weekly",
		Version: "1.0.0",

		Storage: StorageConfig{
			Driver:  "sqlite",
			Path:    "weekly.db",
			Timeout: "5s",
		},

		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			DebugMode: false,
		},

		UI: UIConfig{
			Theme:       "auto",
			WatchStore:  true,
			TimeDisplay: "human",
		},
	}
}

// DefaultHome returns the directory weekly keeps its config, database and logs in.
// WEEKLY_HOME wins over ~/.weekly.
func DefaultHome() string {
	if home := os.Getenv("WEEKLY_HOME"); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ".weekly"
	}
	return filepath.Join(userHome, ".weekly")
}

// DefaultPath returns the config file location inside home.
func DefaultPath(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Defaults still honor the environment
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if driver := os.Getenv("WEEKLY_STORAGE_DRIVER"); driver != "" {
		c.Storage.Driver = strings.ToLower(driver)
	}
	if path := os.Getenv("WEEKLY_DB"); path != "" {
		c.Storage.Path = path
	}

	if level := os.Getenv("WEEKLY_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	switch strings.ToLower(os.Getenv("WEEKLY_DEBUG")) {
	case "1", "true", "yes":
		c.Logging.DebugMode = true
	case "0", "false", "no":
		c.Logging.DebugMode = false
	}

	if theme := os.Getenv("WEEKLY_THEME"); theme != "" {
		c.UI.Theme = strings.ToLower(theme)
	}
}

// StoragePath resolves the storage path against home.
func (c *Config) StoragePath(home string) string {
	p := c.Storage.Path
	if p == "" {
		p = DefaultConfig().Storage.Path
	}
	if filepath.IsAbs(p) || home == "" {
		return p
	}
	return filepath.Join(home, p)
}

// GetStorageTimeout returns the storage timeout as a duration.
func (c *Config) GetStorageTimeout() time.Duration {
	d, err := time.ParseDuration(c.Storage.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(Drivers, c.Storage.Driver) {
		return fmt.Errorf("invalid storage driver: %s (valid: %v)", c.Storage.Driver, Drivers)
	}
	if c.Storage.Driver != "memory" && strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage path required for driver %s", c.Storage.Driver)
	}
	if c.UI.Theme != "" && !contains(Themes, c.UI.Theme) {
		return fmt.Errorf("invalid ui theme: %s (valid: %v)", c.UI.Theme, Themes)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
