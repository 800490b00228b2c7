package faultline

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrDuplicateConstructor indicates a constructor for the same kind is already registered.
	ErrDuplicateConstructor = errors.New("duplicate error constructor")

	// ErrIncompatibleConstructor indicates a constructor failed to build a zero-argument instance.
	ErrIncompatibleConstructor = errors.New("incompatible error constructor")

	// ErrFrozen indicates a property write on a frozen error.
	ErrFrozen = errors.New("error is frozen")

	// ErrPropertyType indicates a property value of the wrong type for its key.
	ErrPropertyType = errors.New("invalid property type")

	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")

	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")

	// ErrInvalidAlgorithm indicates an unknown hash algorithm or mask type.
	ErrInvalidAlgorithm = errors.New("invalid algorithm")
)

// DuplicateConstructorError is returned by Register when the derived kind
// name is already known to the registry.
type DuplicateConstructorError struct {
	Name string
}

func (e *DuplicateConstructorError) Error() string {
	return fmt.Sprintf("the error constructor %q is already known", e.Name)
}

func (e *DuplicateConstructorError) Unwrap() error {
	return ErrDuplicateConstructor
}

// IncompatibleConstructorError is returned by Register when the constructor
// cannot build an instance from an empty message.
type IncompatibleConstructorError struct {
	Constructor string // Go symbol of the rejected constructor
	Cause       error  // What went wrong while building a trial instance
}

func (e *IncompatibleConstructorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("the error constructor %q is not compatible: %v", e.Constructor, e.Cause)
	}
	return fmt.Sprintf("the error constructor %q is not compatible", e.Constructor)
}

// Unwrap exposes both the sentinel and the construction failure.
func (e *IncompatibleConstructorError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrIncompatibleConstructor}
	}
	return []error{ErrIncompatibleConstructor, e.Cause}
}

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrMarshal, ErrUnmarshal)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// newCodecError creates a CodecError for marshal/unmarshal failures.
func newCodecError(sentinel error, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}

// propertyError reports why a single property assignment was refused.
func propertyError(key string, want string, got any) error {
	return fmt.Errorf("%w: %s must be %s, got %T", ErrPropertyType, key, want, got)
}
