package testing

import (
	"errors"
	"testing"

	"github.com/zoobzio/faultline"
)

func TestNewQuotaError(t *testing.T) {
	inst := NewQuotaError("over limit")
	if inst.Name() != "QuotaError" {
		t.Errorf("Name() = %q, want %q", inst.Name(), "QuotaError")
	}
	if inst.Message() != "over limit" {
		t.Errorf("Message() = %q, want %q", inst.Message(), "over limit")
	}
}

func TestTestRegistry(t *testing.T) {
	r := TestRegistry()
	if _, ok := r.Lookup("QuotaError"); !ok {
		t.Error("TestRegistry() should know QuotaError")
	}
	if _, ok := faultline.Lookup("QuotaError"); ok {
		t.Error("TestRegistry() should not touch the default registry")
	}
}

func TestChainedError(t *testing.T) {
	err := ChainedError()

	var re *faultline.RangeError
	if !errors.As(err, &re) {
		t.Fatal("ChainedError() should wrap a RangeError")
	}
	if re.Message() != "write failed" {
		t.Errorf("RangeError message = %q, want %q", re.Message(), "write failed")
	}
	if err.Code() != "E_REQUEST" {
		t.Errorf("Code() = %v, want E_REQUEST", err.Code())
	}
}

func TestCircularError(t *testing.T) {
	e := CircularError()
	if e.Cause() != any(e) {
		t.Error("CircularError() cause should be itself")
	}
}

func TestAggregateOf(t *testing.T) {
	a := AggregateOf("many", errors.New("one"), errors.New("two"))
	if len(a.Errors()) != 2 {
		t.Errorf("Errors() length = %d, want 2", len(a.Errors()))
	}
}
