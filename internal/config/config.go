// Package config handles configuration loading and validation for orderwatch.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the complete orderwatch configuration.
type Config struct {
	// Monitor configuration for the run-length diagnostic.
	Monitor MonitorConfig `toml:"monitor" json:"monitor" yaml:"monitor"`

	// Input configuration for rank stream decoding.
	Input InputConfig `toml:"input" json:"input" yaml:"input"`

	// Storage configuration for run persistence.
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// MonitorConfig holds the diagnostic parameters.
type MonitorConfig struct {
	// Threshold is the z-score magnitude at which a run ends.
	Threshold float64 `toml:"threshold" json:"threshold" yaml:"threshold"`

	// InitialCapacity sizes the rank histogram before the first growth.
	InitialCapacity int `toml:"initial_capacity" json:"initial_capacity" yaml:"initial_capacity"`
}

// InputConfig holds rank stream decoding configuration.
type InputConfig struct {
	// Format is the stream format: "auto", "csv", or "jsonl".
	Format string `toml:"format" json:"format" yaml:"format"`

	// PollIntervalMs is the fallback poll interval for watch mode, in
	// milliseconds, used when filesystem notification is unreliable.
	PollIntervalMs int `toml:"poll_interval_ms" json:"poll_interval_ms" yaml:"poll_interval_ms"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	// Path is the path to the SQLite run database.
	Path string `toml:"path" json:"path" yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stdout", "stderr", or "file".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file path when Output is "file".
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// Load reads configuration from the specified path. If the file doesn't
// exist, returns default configuration. TOML, JSON, and YAML formats are
// supported, selected by file extension.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ORDERWATCH_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Monitor.Threshold = f
		}
	}
	if v := os.Getenv("ORDERWATCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ORDERWATCH_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}
