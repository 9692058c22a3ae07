// Package inference - Error kinds shared by the classifier pipeline.
package inference

import (
	"errors"
	"fmt"
)

// ConfigurationError reports an unusable configuration: a missing engine file, an invalid
// resolution, an empty image list and similar problems detected before any work starts.
type ConfigurationError struct {
	Msg string
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return "configuration error: " + e.Msg
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Msg, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error { return e.Err }

// Cause returns the underlying cause for github.com/pkg/errors.
func (e *ConfigurationError) Cause() error { return e.Err }

// DecodeError reports an image that could not be read or decoded.
type DecodeError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error { return e.Err }

// Cause returns the underlying cause for github.com/pkg/errors.
func (e *DecodeError) Cause() error { return e.Err }

// EngineError reports a failure surfaced by the inference runtime: deserialization, buffer
// allocation or execution.
type EngineError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error { return e.Err }

// Cause returns the underlying cause for github.com/pkg/errors.
func (e *EngineError) Cause() error { return e.Err }

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(msg string, err error) error {
	return &ConfigurationError{Msg: msg, Err: err}
}

// NewDecodeError creates a DecodeError for the given path.
func NewDecodeError(path string, err error) error {
	return &DecodeError{Path: path, Err: err}
}

// NewEngineError creates an EngineError for the given operation.
func NewEngineError(op string, err error) error {
	return &EngineError{Op: op, Err: err}
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsDecodeError reports whether err wraps a DecodeError.
func IsDecodeError(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// IsEngineError reports whether err wraps an EngineError.
func IsEngineError(err error) bool {
	var target *EngineError
	return errors.As(err, &target)
}
