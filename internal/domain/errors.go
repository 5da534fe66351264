package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnprocessable  = errors.New("unprocessable")
	ErrNotImplemented = errors.New("not implemented")
	ErrConfiguration  = errors.New("invalid configuration")
	ErrMissingField   = errors.New("missing required field")
	ErrTransport      = errors.New("transport failure")
)

// ConfigurationError is returned when the gateway is built without a required setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrConfiguration, e.Field)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// MissingFieldError is returned before anything is signed when a required
// per call option is empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// TransportError wraps a failed round trip to the processor.
// StatusCode is zero when no HTTP response was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http status %d", ErrTransport, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }
