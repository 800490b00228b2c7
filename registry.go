package faultline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync"

	"github.com/zoobzio/sentinel"
)

// Constructor builds a fresh error of one kind from a message. The kind's
// name is whatever Name() reports on the instance it returns.
type Constructor func(message string) Instance

// Registry maps kind names to constructors. It is append-only and safe for
// concurrent use; registration is expected during initialization.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
	order []string
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used when no
// WithRegistry option is given.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register adds ctor to the default registry.
func Register(ctor Constructor) error { return defaultRegistry.Register(ctor) }

// Lookup reads the default registry.
func Lookup(name string) (Constructor, bool) { return defaultRegistry.Lookup(name) }

// NewRegistry returns a registry seeded with the built-in kinds followed by
// the host kinds available on this platform.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	seed := append(builtinConstructors(), hostConstructors()...)
	for _, ctor := range seed {
		inst, err := tryConstruct(ctor)
		if err != nil {
			continue
		}
		r.add(inst.Name(), ctor)
	}
	return r
}

// Lookup returns the constructor registered under name.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[name]
	return ctor, ok
}

// Names lists registered kinds in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Register calls ctor with an empty message and records it under the name
// of the instance it returns. A failed registration leaves r unchanged.
func (r *Registry) Register(ctor Constructor) error {
	symbol := constructorSymbol(ctor)

	inst, err := tryConstruct(ctor)
	if err != nil {
		err = &IncompatibleConstructorError{Constructor: symbol, Cause: err}
		emitConstructorRejected(context.Background(), symbol, err)
		return err
	}
	name := inst.Name()

	// Fast path: read-lock duplicate check
	r.mu.RLock()
	_, exists := r.ctors[name]
	r.mu.RUnlock()
	if exists {
		err := &DuplicateConstructorError{Name: name}
		emitConstructorRejected(context.Background(), name, err)
		return err
	}

	r.mu.Lock()
	// Double-check under the write lock
	if _, exists := r.ctors[name]; exists {
		r.mu.Unlock()
		err := &DuplicateConstructorError{Name: name}
		emitConstructorRejected(context.Background(), name, err)
		return err
	}
	r.ctors[name] = ctor
	r.order = append(r.order, name)
	r.mu.Unlock()

	emitConstructorRegistered(context.Background(), name)
	return nil
}

// RegisterKind adds ctor to r, or to the default registry when r is nil,
// after scanning the struct behind T so its fields resolve through the
// metadata sentinel holds. ctor must build a T.
func RegisterKind[T Instance](r *Registry, ctor Constructor) error {
	if r == nil {
		r = defaultRegistry
	}
	if err := checkKind[T](ctor); err != nil {
		symbol := constructorSymbol(ctor)
		err = &IncompatibleConstructorError{Constructor: symbol, Cause: err}
		emitConstructorRejected(context.Background(), symbol, err)
		return err
	}

	rt := reflect.TypeFor[T]().Elem()
	fieldCache.Store(rt, fieldsFrom(rt, sentinel.Scan[T]()))

	return r.Register(ctor)
}

// checkKind reports why ctor cannot be registered as the kind T.
func checkKind[T Instance](ctor Constructor) error {
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Pointer || rt.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%s is not a pointer to a struct", rt)
	}
	inst, err := tryConstruct(ctor)
	if err != nil {
		return err
	}
	if _, ok := inst.(T); !ok {
		return fmt.Errorf("constructor builds %T, not %s", inst, rt)
	}
	return nil
}

// New allocates an error of the named kind, falling back to the generic
// Error constructor for empty or unknown names.
func (r *Registry) New(name, message string) Instance {
	if ctor, ok := r.Lookup(name); ok {
		if inst := safeConstruct(ctor, message); inst != nil {
			return inst
		}
	}
	return New(message)
}

func (r *Registry) add(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[name]; exists {
		return
	}
	r.ctors[name] = ctor
	r.order = append(r.order, name)
}

// tryConstruct builds an instance from an empty message, turning panics and
// nil or nameless instances into errors.
func tryConstruct(ctor Constructor) (inst Instance, err error) {
	if ctor == nil {
		return nil, errors.New("constructor is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			inst = nil
			if e, ok := rec.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("%v", rec)
		}
	}()

	inst = ctor("")
	if isNilInstance(inst) {
		return nil, errors.New("constructor returned nil")
	}
	if inst.Name() == "" {
		return nil, errors.New("constructor returned an error without a name")
	}
	return inst, nil
}

// safeConstruct calls a registered constructor, treating a panic or a nil
// result as absent.
func safeConstruct(ctor Constructor, message string) (inst Instance) {
	defer func() {
		if recover() != nil {
			inst = nil
		}
	}()
	inst = ctor(message)
	if isNilInstance(inst) {
		return nil
	}
	return inst
}

func isNilInstance(inst Instance) bool {
	if inst == nil {
		return true
	}
	rv := reflect.ValueOf(inst)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// constructorSymbol names a constructor for diagnostics.
func constructorSymbol(ctor Constructor) string {
	if ctor == nil {
		return "<nil>"
	}
	fn := runtime.FuncForPC(reflect.ValueOf(ctor).Pointer())
	if fn == nil {
		return "anonymous"
	}
	return fn.Name()
}
