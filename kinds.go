package faultline

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Names of the built-in kinds.
const (
	errorName          = "Error"
	evalErrorName      = "EvalError"
	rangeErrorName     = "RangeError"
	referenceErrorName = "ReferenceError"
	syntaxErrorName    = "SyntaxError"
	typeErrorName      = "TypeError"
	uriErrorName       = "URIError"
	aggregateErrorName = "AggregateError"
	nonErrorName       = "NonError"
)

// Error is the generic kind, used whenever a name is not registered.
type Error struct{ *Core }

// New returns a generic Error with a captured stack.
func New(message string) *Error {
	return &Error{newCore(errorName, message)}
}

// EvalError is the eval-failure kind.
type EvalError struct{ *Core }

// RangeError reports a value outside its allowed range.
type RangeError struct{ *Core }

// ReferenceError reports a reference to something that does not exist.
type ReferenceError struct{ *Core }

// SyntaxError reports malformed input.
type SyntaxError struct{ *Core }

// TypeError reports a value of the wrong type.
type TypeError struct{ *Core }

// URIError reports a malformed URI.
type URIError struct{ *Core }

// NewEvalError returns an EvalError with a captured stack.
func NewEvalError(message string) *EvalError {
	return &EvalError{newCore(evalErrorName, message)}
}

// NewRangeError returns a RangeError with a captured stack.
func NewRangeError(message string) *RangeError {
	return &RangeError{newCore(rangeErrorName, message)}
}

// NewReferenceError returns a ReferenceError with a captured stack.
func NewReferenceError(message string) *ReferenceError {
	return &ReferenceError{newCore(referenceErrorName, message)}
}

// NewSyntaxError returns a SyntaxError with a captured stack.
func NewSyntaxError(message string) *SyntaxError {
	return &SyntaxError{newCore(syntaxErrorName, message)}
}

// NewTypeError returns a TypeError with a captured stack.
func NewTypeError(message string) *TypeError {
	return &TypeError{newCore(typeErrorName, message)}
}

// NewURIError returns a URIError with a captured stack.
func NewURIError(message string) *URIError {
	return &URIError{newCore(uriErrorName, message)}
}

// AggregateError wraps an ordered list of sub-errors.
type AggregateError struct{ *Core }

// NewAggregateError returns an AggregateError over errs.
func NewAggregateError(errs []error, message string) *AggregateError {
	e := &AggregateError{newCore(aggregateErrorName, message)}
	list := make([]any, len(errs))
	for i, err := range errs {
		list[i] = err
	}
	e.errs = list
	return e
}

// Unwrap exposes the cause and every sub-error that is an error, so
// errors.Is and errors.As see the whole aggregate.
func (e *AggregateError) Unwrap() []error {
	out := make([]error, 0, len(e.errs)+1)
	if err, ok := e.cause.(error); ok && !e.is(err) {
		out = append(out, err)
	}
	for _, sub := range e.errs {
		if err, ok := sub.(error); ok && !e.is(err) {
			out = append(out, err)
		}
	}
	return out
}

// NonError is what Deserialize returns for input that cannot be read as an
// error. Its message is the JSON text of that input.
type NonError struct{ *Core }

// NewNonError wraps value.
func NewNonError(value any) *NonError {
	return &NonError{newCore(nonErrorName, nonErrorMessage(value))}
}

// nonErrorMessage falls back to the serialized form when value itself is
// not JSON-safe. When even that cannot be encoded the serialized form is
// printed with fmt; it is cycle-free, value may not be.
func nonErrorMessage(value any) string {
	if s, ok := encodeJSON(value); ok {
		return s
	}
	plain := Serialize(value)
	if s, ok := encodeJSON(plain); ok {
		return s
	}
	return fmt.Sprint(plain)
}

func encodeJSON(value any) (string, bool) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", false
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), true
}

// builtinConstructors are the kinds every registry starts with.
func builtinConstructors() []Constructor {
	return []Constructor{
		func(m string) Instance { return New(m) },
		func(m string) Instance { return NewEvalError(m) },
		func(m string) Instance { return NewRangeError(m) },
		func(m string) Instance { return NewReferenceError(m) },
		func(m string) Instance { return NewSyntaxError(m) },
		func(m string) Instance { return NewTypeError(m) },
		func(m string) Instance { return NewURIError(m) },
		func(m string) Instance { return NewAggregateError(nil, m) },
	}
}
