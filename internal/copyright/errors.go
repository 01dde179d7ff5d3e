package copyright

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput matches any InvalidInputError
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfiguration matches any ConfigurationError
	ErrConfiguration = errors.New("configuration error")
)

// InvalidInputError rejects a fact that is out of range or inconsistent
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConfigurationError means no calculator is registered for a country
type ConfigurationError struct {
	Country string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no copyright calculator registered for country %q", e.Country)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
