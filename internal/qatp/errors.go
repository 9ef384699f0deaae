package qatp

import (
	"errors"
	"fmt"
)

// Domain errors for cycle operations.
var (
	// ErrInvalidInput indicates a negative or non-numeric operand.
	ErrInvalidInput = errors.New("qatp: invalid input")

	// ErrConfiguration indicates an out-of-bounds construction parameter.
	ErrConfiguration = errors.New("qatp: invalid configuration")

	// ErrInsufficientEnergy indicates a draw beyond the available stock
	// under the reject underflow policy.
	ErrInsufficientEnergy = errors.New("qatp: insufficient energy")
)

// ConfigError reports which configuration field failed validation.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("qatp: invalid configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// InputError reports an operand rejected by a component operation.
type InputError struct {
	Op    string
	Value float64
}

func (e *InputError) Error() string {
	return fmt.Sprintf("qatp: invalid input to %s: %v", e.Op, e.Value)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// ShortfallError carries the requested and available amounts of a rejected draw.
type ShortfallError struct {
	Op        string
	Requested float64
	Available float64
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("qatp: insufficient energy for %s: requested %.6f, available %.6f", e.Op, e.Requested, e.Available)
}

func (e *ShortfallError) Unwrap() error {
	return ErrInsufficientEnergy
}
