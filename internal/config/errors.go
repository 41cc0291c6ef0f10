package config

import "fmt"

// ConfigError is returned when a configuration source exists but cannot be
// parsed, decoded or validated.
type ConfigError struct {
	Path string `json:"path"`
	Err  error  `json:"error"`
}

// Error returns the error message for the ConfigError
func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error in %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(path string, err error) *ConfigError {
	return &ConfigError{Path: path, Err: err}
}

// Interface guard for ConfigError
// This ensures that ConfigError implements the error interface.
var _ error = &ConfigError{}
