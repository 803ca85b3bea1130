package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the base orderwatch data directory. The
// ORDERWATCH_DATA_DIR environment variable overrides platform detection.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/orderwatch/
//   - Linux:   ~/.local/share/orderwatch/
//   - Windows: %APPDATA%\orderwatch\
//
// Falls back to ~/.orderwatch if platform detection fails.
func DataDir() string {
	if dir := os.Getenv("ORDERWATCH_DATA_DIR"); dir != "" {
		return dir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".orderwatch"
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "orderwatch")
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "orderwatch")
		}
		return filepath.Join(home, ".local", "share", "orderwatch")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "orderwatch")
		}
		return filepath.Join(home, ".orderwatch")
	default:
		return filepath.Join(home, ".orderwatch")
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dir := DataDir()
	return &Config{
		Monitor: MonitorConfig{
			Threshold:       3.0,
			InitialCapacity: 400,
		},
		Input: InputConfig{
			Format:         "auto",
			PollIntervalMs: 500,
		},
		Storage: StorageConfig{
			Path: filepath.Join(dir, "runs.db"),
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "stderr",
			FilePath: filepath.Join(dir, "orderwatch.log"),
		},
	}
}
