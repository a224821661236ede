package engine

import (
	"errors"
	"fmt"
)

// ConfigError reports a graph that cannot be constructed or wired.
//
// Runtime refusals (a full belt, an empty supplier) are never errors; they
// are boolean results retried on the next tick. ConfigError covers the
// malformed-construction class only, so it surfaces before the clock starts.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Message is a human-readable description.
	Message string

	// Component is the id of the offending component, if any.
	Component string
}

// ConfigErrorCode categorizes construction errors.
type ConfigErrorCode string

const (
	// ErrCodeInvalidCapacity indicates a belt capacity <= 0.
	ErrCodeInvalidCapacity ConfigErrorCode = "INVALID_CAPACITY"

	// ErrCodeInvalidRate indicates a production rate that is not > 0.
	ErrCodeInvalidRate ConfigErrorCode = "INVALID_RATE"

	// ErrCodeInvalidPorts indicates a negative input/output bound or a
	// building without internal belts.
	ErrCodeInvalidPorts ConfigErrorCode = "INVALID_PORTS"

	// ErrCodeInvalidID indicates an empty component id or one containing
	// '/', which is reserved for internal belts.
	ErrCodeInvalidID ConfigErrorCode = "INVALID_ID"

	// ErrCodeDuplicateID indicates two components share an id.
	ErrCodeDuplicateID ConfigErrorCode = "DUPLICATE_ID"

	// ErrCodeUnknownComponent indicates a link names a missing component.
	ErrCodeUnknownComponent ConfigErrorCode = "UNKNOWN_COMPONENT"

	// ErrCodeInvalidLink indicates a link between incompatible components.
	ErrCodeInvalidLink ConfigErrorCode = "INVALID_LINK"

	// ErrCodePortsExhausted indicates a connect beyond maxInputs/maxOutputs.
	ErrCodePortsExhausted ConfigErrorCode = "PORTS_EXHAUSTED"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s: %s (component=%s)", e.Code, e.Message, e.Component)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError returns true if err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ConfigErrorCodeOf returns the code of a wrapped ConfigError, or "".
func ConfigErrorCodeOf(err error) ConfigErrorCode {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func newConfigError(code ConfigErrorCode, component, format string, args ...any) *ConfigError {
	return &ConfigError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Component: component,
	}
}
