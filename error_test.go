package faultline_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/zoobzio/faultline"
)

func TestCore_Error(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"name and message", faultline.NewTypeError("bad"), "TypeError: bad"},
		{"empty message", faultline.NewRangeError(""), "RangeError"},
		{"empty name", faultline.NewCore("", "bare"), "bare"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCore_Stack(t *testing.T) {
	err := faultline.NewSyntaxError("unexpected token")
	stack := err.Stack()

	if !strings.HasPrefix(stack, "SyntaxError: unexpected token\n    at ") {
		t.Fatalf("Stack() = %q", stack)
	}
	if !strings.Contains(stack, "TestCore_Stack") {
		t.Errorf("stack should start at the caller:\n%s", stack)
	}
	if strings.Contains(stack, "faultline.newCore") {
		t.Errorf("stack should not include the constructor:\n%s", stack)
	}
}

func TestCore_Set(t *testing.T) {
	err := faultline.New("original")

	if e := err.Set("message", "changed"); e != nil {
		t.Fatalf("Set(message) error: %v", e)
	}
	if err.Message() != "changed" {
		t.Errorf("Message() = %q", err.Message())
	}
	if e := err.Set("name", "CustomError"); e != nil {
		t.Fatalf("Set(name) error: %v", e)
	}
	if err.Name() != "CustomError" {
		t.Errorf("Name() = %q", err.Name())
	}
	if e := err.Set("stack", "remote stack"); e != nil || err.Stack() != "remote stack" {
		t.Errorf("Set(stack) = %v, Stack() = %q", e, err.Stack())
	}
}

func TestCore_SetTypeChecks(t *testing.T) {
	err := faultline.New("x")

	for _, key := range []string{"name", "message", "stack"} {
		if e := err.Set(key, 42); !errors.Is(e, faultline.ErrPropertyType) {
			t.Errorf("Set(%s, 42) = %v, want ErrPropertyType", key, e)
		}
	}
	if e := err.Set("errors", "not a list"); !errors.Is(e, faultline.ErrPropertyType) {
		t.Errorf("Set(errors, string) = %v, want ErrPropertyType", e)
	}
	if err.Message() != "x" {
		t.Errorf("rejected Set changed message to %q", err.Message())
	}
}

func TestCore_SetErrors(t *testing.T) {
	err := faultline.New("x")
	subs := []error{errors.New("a"), errors.New("b")}

	if e := err.Set("errors", subs); e != nil {
		t.Fatalf("Set(errors) error: %v", e)
	}
	if got := err.Errors(); len(got) != 2 || got[0] != subs[0] {
		t.Errorf("Errors() = %v", got)
	}
	if e := err.Set("errors", []string{"c"}); e != nil {
		t.Fatalf("Set(errors, []string) error: %v", e)
	}
	if got := err.Errors(); len(got) != 1 || got[0] != "c" {
		t.Errorf("Errors() = %v", got)
	}
}

func TestCore_KeysAndProperty(t *testing.T) {
	err := faultline.New("x")
	if len(err.Keys()) != 0 {
		t.Errorf("fresh error Keys() = %v", err.Keys())
	}

	err.With("b", 1).With("a", 2).With("b", 3).WithCode("E_X")

	if got, want := err.Keys(), []string{"code", "b", "a"}; !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if v, ok := err.Property("b"); !ok || v != 3 {
		t.Errorf("Property(b) = %v, %v", v, ok)
	}
	if _, ok := err.Property("missing"); ok {
		t.Error("Property(missing) reported present")
	}
	for _, key := range []string{"name", "message", "stack"} {
		if _, ok := err.Property(key); !ok {
			t.Errorf("Property(%s) should always be defined", key)
		}
	}
	if _, ok := err.Property("cause"); ok {
		t.Error("Property(cause) should be absent until set")
	}
}

func TestCore_Freeze(t *testing.T) {
	err := faultline.New("x")
	err.Freeze()

	if !err.Frozen() {
		t.Fatal("Frozen() = false after Freeze")
	}
	if e := err.Set("message", "y"); !errors.Is(e, faultline.ErrFrozen) {
		t.Errorf("Set() on frozen = %v, want ErrFrozen", e)
	}
	err.With("k", "v")
	if _, ok := err.Property("k"); ok {
		t.Error("With() changed a frozen error")
	}
}

func TestCore_Unwrap(t *testing.T) {
	root := errors.New("root")
	err := faultline.New("top")
	err.WithCause(root)

	if !errors.Is(err, root) {
		t.Error("errors.Is should see the cause")
	}

	plain := faultline.New("top")
	plain.WithCause("just a string")
	if errors.Unwrap(plain) != nil {
		t.Error("non-error cause should not unwrap")
	}
	if plain.Cause() != "just a string" {
		t.Errorf("Cause() = %v", plain.Cause())
	}
}

func TestAggregateError_Unwrap(t *testing.T) {
	target := faultline.NewURIError("bad uri")
	agg := faultline.NewAggregateError([]error{errors.New("a"), target}, "many")

	var ue *faultline.URIError
	if !errors.As(agg, &ue) || ue != target {
		t.Error("errors.As should find a sub-error")
	}
	if len(agg.Errors()) != 2 {
		t.Errorf("Errors() = %v", agg.Errors())
	}
}

func TestNewNonError(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{nil, "null"},
		{"text", `"text"`},
		{map[string]any{"b": 1, "a": true}, `{"a":true,"b":1}`},
		{func() {}, `"[Function: anonymous]"`},
	}
	for _, tt := range tests {
		ne := faultline.NewNonError(tt.value)
		if ne.Message() != tt.want {
			t.Errorf("NewNonError(%T).Message() = %q, want %q", tt.value, ne.Message(), tt.want)
		}
	}
}

func TestCore_Format(t *testing.T) {
	root := faultline.NewRangeError("inner")
	err := faultline.NewTypeError("outer")
	err.WithCode("E_OUT").With("user", "u1").WithCause(root)

	if got := fmt.Sprintf("%v", err); got != "TypeError: outer" {
		t.Errorf("%%v = %q", got)
	}
	if got := fmt.Sprintf("%s", err); got != "TypeError: outer" {
		t.Errorf("%%s = %q", got)
	}
	if got := fmt.Sprintf("%q", err); got != `"TypeError: outer"` {
		t.Errorf("%%q = %q", got)
	}

	verbose := fmt.Sprintf("%+v", err)
	for _, want := range []string{
		"TypeError: outer\ncode: E_OUT\nprops: user=u1\n",
		"\ncaused by: RangeError: inner\n",
	} {
		if !strings.Contains(verbose, want) {
			t.Errorf("%%+v missing %q:\n%s", want, verbose)
		}
	}
}

func TestCore_FormatAggregate(t *testing.T) {
	agg := faultline.NewAggregateError([]error{faultline.New("one")}, "many")
	if verbose := fmt.Sprintf("%+v", agg); !strings.Contains(verbose, "\nerrors[0]: Error: one") {
		t.Errorf("%%+v = %s", verbose)
	}
}

func TestCore_MarshalJSON(t *testing.T) {
	err := faultline.NewEvalError("nope")
	err.WithCode(7)

	data, e := json.Marshal(err)
	if e != nil {
		t.Fatalf("Marshal() error: %v", e)
	}
	var got map[string]any
	if e := json.Unmarshal(data, &got); e != nil {
		t.Fatalf("Unmarshal() error: %v", e)
	}
	if got["name"] != "EvalError" || got["message"] != "nope" || got["code"] != float64(7) {
		t.Errorf("MarshalJSON() = %s", data)
	}
}

func TestIsErrorLike(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"instance", faultline.New("x"), true},
		{"go error", errors.New("x"), true},
		{"full map", map[string]any{"name": "E", "message": "m", "stack": ""}, true},
		{"no stack", map[string]any{"name": "E", "message": "m"}, false},
		{"number message", map[string]any{"name": "E", "message": 1, "stack": ""}, false},
		{"string", "x", false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := faultline.IsErrorLike(tt.value); got != tt.want {
				t.Errorf("IsErrorLike() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCore_UnwrapSelfCause(t *testing.T) {
	err := faultline.New("loop")
	err.WithCause(err)

	if errors.Unwrap(err) != nil {
		t.Error("a self-cause should not unwrap")
	}
	if errors.Is(err, faultline.ErrFrozen) {
		t.Error("unexpected match")
	}
	if err.Cause() != any(err) {
		t.Error("Cause() should still report the self reference")
	}
}
