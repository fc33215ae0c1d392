// Package config loads geomap settings from YAML, .env files and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"geomap/internal/geom"
	"geomap/internal/spatial"
	"geomap/internal/validate"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "geomap.yaml"

// Config holds all geomap settings.
type Config struct {
	Log   LogConfig   `yaml:"log"`
	Index IndexConfig `yaml:"index"`
	Check CheckConfig `yaml:"check"`
	View  ViewConfig  `yaml:"view"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`   // empty means stderr
}

// IndexConfig tunes the spatial index of loaded data sets.
type IndexConfig struct {
	MaxLevel int `yaml:"max_level"`
}

type CheckConfig struct {
	MaxReports int    `yaml:"max_reports"`
	MetricsOut string `yaml:"metrics_out"`
}

type ViewConfig struct {
	Watch    bool   `yaml:"watch"`
	Debounce string `yaml:"debounce"`
	Help     bool   `yaml:"help"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Index: IndexConfig{
			MaxLevel: spatial.DefaultMaxLevel,
		},
		Check: CheckConfig{
			MaxReports: validate.DefaultMaxReports,
		},
		View: ViewConfig{
			Debounce: "250ms",
			Help:     true,
		},
	}
}

// LoadEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("GEOMAP_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GEOMAP_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("GEOMAP_MAX_REPORTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GEOMAP_MAX_REPORTS: %w", err)
		}
		c.Check.MaxReports = n
	}
	if v := os.Getenv("GEOMAP_INDEX_LEVEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GEOMAP_INDEX_LEVEL: %w", err)
		}
		c.Index.MaxLevel = n
	}
	return nil
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"json", "console"}
)

// Validate checks value ranges.
func (c *Config) Validate() error {
	if !slices.Contains(validLevels, c.Log.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Log.Level, validLevels)
	}
	if !slices.Contains(validFormats, c.Log.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Log.Format, validFormats)
	}
	if c.Index.MaxLevel < 0 || c.Index.MaxLevel > geom.MaxTileLevel {
		return fmt.Errorf("index max_level %d out of range [0, %d]", c.Index.MaxLevel, geom.MaxTileLevel)
	}
	if c.Check.MaxReports < 1 {
		return fmt.Errorf("check max_reports must be positive, got %d", c.Check.MaxReports)
	}
	if _, err := time.ParseDuration(c.View.Debounce); err != nil {
		return fmt.Errorf("invalid view debounce: %w", err)
	}
	return nil
}

// GetDebounce returns the file watch debounce, or 250ms when unparsable.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.View.Debounce)
	if err != nil {
		return 250 * time.Millisecond
	}
	return d
}
