// Package testing provides test utilities for faultline.
package testing

import (
	"errors"

	"github.com/zoobzio/faultline"
)

// QuotaError is a custom kind for registry tests.
type QuotaError struct {
	*faultline.Core
	Limit int `json:"limit"`
}

// NewQuotaError builds a QuotaError. It is a valid Constructor.
func NewQuotaError(message string) faultline.Instance {
	return &QuotaError{Core: faultline.NewCore("QuotaError", message)}
}

// TestRegistry returns a fresh registry that also knows QuotaError.
func TestRegistry() *faultline.Registry {
	r := faultline.NewRegistry()
	if err := faultline.RegisterKind[*QuotaError](r, NewQuotaError); err != nil {
		panic(err)
	}
	return r
}

// ChainedError returns a TypeError caused by a RangeError caused by a
// plain Go error, with a code and one custom property.
func ChainedError() *faultline.TypeError {
	root := errors.New("disk full")
	mid := faultline.NewRangeError("write failed")
	mid.WithCause(root)
	top := faultline.NewTypeError("request failed")
	top.WithCode("E_REQUEST").WithCause(mid).With("requestId", "req-42")
	return top
}

// CircularError returns an error whose cause and custom property both point
// back at itself.
func CircularError() *faultline.Error {
	e := faultline.New("loop")
	e.WithCause(e).With("self", e)
	return e
}

// AggregateOf returns an AggregateError over errs with the given message.
func AggregateOf(message string, errs ...error) *faultline.AggregateError {
	return faultline.NewAggregateError(errs, message)
}

// SensitiveError carries values Send is expected to mask or redact.
func SensitiveError() *faultline.Error {
	e := faultline.New("login failed")
	e.WithCode("E_AUTH").
		With("email", "alice@example.com").
		With("password", "hunter2").
		With("clientIp", "192.168.1.100")
	return e
}
