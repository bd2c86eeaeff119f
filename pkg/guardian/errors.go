package guardian

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Start when the engine is already running.
var ErrAlreadyRunning = errors.New("guardian: engine is already running")

// ConfigError reports a malformed or incomplete configuration document.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "invalid configuration"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ValidationError reports a field value outside its allowed domain.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("the provided value (%v) for %s is invalid: %s", e.Value, e.Field, e.Reason)
}

func configErrorf(err error, format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...), Err: err}
}
