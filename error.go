package faultline

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
)

// ErrorLike is the accessor form of the error shape: a name, a message and a
// stack, all strings.
type ErrorLike interface {
	Name() string
	Message() string
	Stack() string
}

// Instance is a live error that deserialization can allocate and populate.
// Every kind embeds *Core, which is what Base returns.
type Instance interface {
	error
	ErrorLike
	Base() *Core
}

// Core is the state every kind shares: the six recognized error fields plus
// any custom properties picked up on the way in. Kinds embed *Core and get
// its methods.
//
// Core values are not safe for concurrent mutation; populate them before
// sharing.
type Core struct {
	name    string
	message string
	stack   string
	code    any
	cause   any
	errs    []any

	keys   []string
	props  map[string]any
	frozen bool
}

var (
	_ Instance = (*Core)(nil)
	_ Instance = (*Error)(nil)
)

// NewCore returns the shared state for a custom kind named name, with the
// stack captured at the caller.
func NewCore(name, message string) *Core {
	return newCore(name, message)
}

// newCore must be called directly by the exported constructors so the
// recorded stack starts at their caller.
func newCore(name, message string) *Core {
	return &Core{
		name:    name,
		message: message,
		stack:   renderStack(name, message, callers(4)),
	}
}

func (e *Core) Base() *Core { return e }

func (e *Core) Name() string    { return e.name }
func (e *Core) Message() string { return e.message }
func (e *Core) Stack() string   { return e.stack }

// Code returns the machine-readable code, if any.
func (e *Core) Code() any { return e.code }

// Cause returns the underlying cause. It need not be an error.
func (e *Core) Cause() any { return e.cause }

// Errors returns the aggregated sub-errors.
func (e *Core) Errors() []any { return e.errs }

func (e *Core) Error() string {
	return header(e.name, e.message)
}

// Unwrap returns the cause when it is an error other than e itself.
func (e *Core) Unwrap() error {
	if err, ok := e.cause.(error); ok && !e.is(err) {
		return err
	}
	return nil
}

// is reports whether err shares e's state, so a self-cause never unwraps.
func (e *Core) is(err error) bool {
	inst, ok := err.(Instance)
	return ok && !isNilInstance(inst) && inst.Base() == e
}

// Set assigns a property. The name, message and stack keys take strings and
// errors takes a list; every other key other than code and cause is stored
// as a custom property.
func (e *Core) Set(key string, value any) error {
	if e.frozen {
		return fmt.Errorf("%w: cannot set %s", ErrFrozen, key)
	}

	switch key {
	case "name", "message", "stack":
		s, ok := value.(string)
		if !ok {
			return propertyError(key, "a string", value)
		}
		switch key {
		case "name":
			e.name = s
		case "message":
			e.message = s
		default:
			e.stack = s
		}
	case "code":
		e.code = value
	case "cause":
		e.cause = value
	case "errors":
		list, ok := toList(value)
		if !ok {
			return propertyError(key, "a list", value)
		}
		e.errs = list
	default:
		if e.props == nil {
			e.props = make(map[string]any)
		}
		if _, exists := e.props[key]; !exists {
			e.keys = append(e.keys, key)
		}
		e.props[key] = value
	}
	return nil
}

// Property reads a property by key. The name, message and stack keys are
// always defined.
func (e *Core) Property(key string) (any, bool) {
	switch key {
	case "name":
		return e.name, true
	case "message":
		return e.message, true
	case "stack":
		return e.stack, true
	case "code":
		return e.code, e.code != nil
	case "cause":
		return e.cause, e.cause != nil
	case "errors":
		return e.errs, e.errs != nil
	}
	v, ok := e.props[key]
	return v, ok
}

// Keys lists the own enumerable properties: code when set, then custom
// properties in insertion order.
func (e *Core) Keys() []string {
	keys := make([]string, 0, len(e.keys)+1)
	if e.code != nil {
		keys = append(keys, "code")
	}
	return append(keys, e.keys...)
}

// Freeze makes every later Set fail with ErrFrozen.
func (e *Core) Freeze() { e.frozen = true }

// Frozen reports whether Freeze was called.
func (e *Core) Frozen() bool { return e.frozen }

// WithCode sets the code and returns the receiver.
func (e *Core) WithCode(code any) *Core {
	_ = e.Set("code", code)
	return e
}

// WithCause sets the cause and returns the receiver.
func (e *Core) WithCause(cause any) *Core {
	_ = e.Set("cause", cause)
	return e
}

// With sets a custom property and returns the receiver.
func (e *Core) With(key string, value any) *Core {
	_ = e.Set(key, value)
	return e
}

// MarshalJSON encodes the serialized form of the error.
func (e *Core) MarshalJSON() ([]byte, error) {
	return json.Marshal(Serialize(e))
}

// Format implements fmt.Formatter.
//
//	%s, %v  name: message
//	%q      quoted name: message
//	%+v     name, message, code, properties, stack and the cause chain
func (e *Core) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			e.writeVerbose(s)
			return
		}
		_, _ = io.WriteString(s, e.Error())
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = fmt.Fprintf(s, "%%!%c(%T=%s)", verb, e, e.Error())
	}
}

func (e *Core) writeVerbose(w io.Writer) {
	_, _ = io.WriteString(w, e.Error())
	if e.code != nil {
		_, _ = fmt.Fprintf(w, "\ncode: %v", e.code)
	}
	if len(e.keys) > 0 {
		keys := append([]string(nil), e.keys...)
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, e.props[k]))
		}
		_, _ = fmt.Fprintf(w, "\nprops: %s", strings.Join(pairs, " "))
	}
	if e.stack != "" {
		_, _ = fmt.Fprintf(w, "\n%s", e.stack)
	}
	for i, sub := range e.errs {
		_, _ = fmt.Fprintf(w, "\nerrors[%d]: %+v", i, sub)
	}
	if e.cause != nil {
		_, _ = fmt.Fprintf(w, "\ncaused by: %+v", e.cause)
	}
}

// toList accepts []any, []error or any other non-byte slice.
func toList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []error:
		out := make([]any, len(x))
		for i, err := range x {
			out[i] = err
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
