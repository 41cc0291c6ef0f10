package plugin

import (
	"fmt"
)

// ManifestError is returned when a plugin directory has no usable
// plugin.toml. It indicates a broken installation and is never retried.
type ManifestError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Err    error  `json:"error,omitempty"`
}

// Error returns the error message for the ManifestError
func (e *ManifestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid plugin manifest %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid plugin manifest %s: %s", e.Path, e.Reason)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// NewManifestError creates a new ManifestError
func NewManifestError(path, reason string, err error) *ManifestError {
	return &ManifestError{Path: path, Reason: reason, Err: err}
}

// Interface guard for ManifestError
var _ error = &ManifestError{}

// LocationError is returned when a location string matches no builtin,
// local directory or remote locator.
type LocationError struct {
	Location string `json:"location"`
	Reason   string `json:"reason"`
}

// Error returns the error message for the LocationError
func (e *LocationError) Error() string {
	return fmt.Sprintf("cannot resolve plugin %q: %s", e.Location, e.Reason)
}

// NewLocationError creates a new LocationError
func NewLocationError(location, reason string) *LocationError {
	return &LocationError{Location: location, Reason: reason}
}

// Interface guard for LocationError
var _ error = &LocationError{}

// UnknownOperationError is returned by builtin plugins for operations they
// do not implement.
type UnknownOperationError struct {
	Plugin    string `json:"plugin"`
	Operation string `json:"operation"`
}

// Error returns the error message for the UnknownOperationError
func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("%s: unknown operation: %s", e.Plugin, e.Operation)
}

// NewUnknownOperationError creates a new UnknownOperationError
func NewUnknownOperationError(plugin, operation string) *UnknownOperationError {
	return &UnknownOperationError{Plugin: plugin, Operation: operation}
}

// Interface guard for UnknownOperationError
var _ error = &UnknownOperationError{}

// ExecutionError is returned when an external plugin cannot be started or
// exits non-zero.
type ExecutionError struct {
	Path      string `json:"path"`
	Operation string `json:"operation"`
	ExitCode  int    `json:"exit_code"`
	Err       error  `json:"error,omitempty"`
}

// Error returns the error message for the ExecutionError
func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to run %s %s: %v", e.Path, e.Operation, e.Err)
	}
	return fmt.Sprintf("%s %s exited with code %d", e.Path, e.Operation, e.ExitCode)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError creates a new ExecutionError
func NewExecutionError(path, operation string, exitCode int, err error) *ExecutionError {
	return &ExecutionError{Path: path, Operation: operation, ExitCode: exitCode, Err: err}
}

// Interface guard for ExecutionError
var _ error = &ExecutionError{}
