package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Monitor.Threshold <= 0 {
		errs = append(errs, ValidationError{
			Field:   "monitor.threshold",
			Message: fmt.Sprintf("must be positive, got %v", c.Monitor.Threshold),
		})
	}
	if c.Monitor.InitialCapacity < 0 {
		errs = append(errs, ValidationError{
			Field:   "monitor.initial_capacity",
			Message: fmt.Sprintf("must not be negative, got %d", c.Monitor.InitialCapacity),
		})
	}

	switch c.Input.Format {
	case "", "auto", "csv", "jsonl", "ndjson":
	default:
		errs = append(errs, ValidationError{
			Field:   "input.format",
			Message: fmt.Sprintf("unknown format %q", c.Input.Format),
		})
	}
	if c.Input.PollIntervalMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "input.poll_interval_ms",
			Message: fmt.Sprintf("must not be negative, got %d", c.Input.PollIntervalMs),
		})
	}

	if c.Storage.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "storage.path",
			Message: "must not be empty",
		})
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown level %q", c.Logging.Level),
		})
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown format %q", c.Logging.Format),
		})
	}
	switch c.Logging.Output {
	case "stdout", "stderr", "file":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("unknown output %q", c.Logging.Output),
		})
	}
	if c.Logging.Output == "file" && c.Logging.FilePath == "" {
		errs = append(errs, ValidationError{
			Field:   "logging.file_path",
			Message: "required when output is \"file\"",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
