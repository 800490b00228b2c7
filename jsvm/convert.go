package jsvm

import (
	"errors"

	"github.com/dop251/goja"

	"github.com/zoobzio/faultline"
)

// FromException rebuilds the value thrown by a script as a faultline error
// of the matching kind: a thrown TypeError becomes a *faultline.TypeError.
// Thrown non-errors become a *faultline.NonError. Errors that did not come
// from a throw pass through unchanged.
func FromException(vm *goja.Runtime, err error, opts ...faultline.Option) error {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return faultline.Deserialize(Wrap(vm, exc.Value()), opts...)
	}
	var syntax *goja.CompilerSyntaxError
	if errors.As(err, &syntax) {
		return faultline.NewSyntaxError(syntax.Error())
	}
	return err
}

// ToValue builds a JavaScript error from err using the global constructor
// named by its kind, falling back to Error. Code, cause, errors and custom
// properties are copied; cause and errors are rebuilt recursively.
func ToValue(vm *goja.Runtime, err error) goja.Value {
	if err == nil {
		return goja.Null()
	}
	return fromPlain(vm, faultline.Serialize(err))
}

func fromPlain(vm *goja.Runtime, v any) goja.Value {
	m, ok := v.(map[string]any)
	if !ok || !isErrorShaped(m) {
		return vm.ToValue(v)
	}

	name, _ := m["name"].(string)
	message, _ := m["message"].(string)

	ctor := errorConstructor(vm, name)
	args := []goja.Value{vm.ToValue(message)}
	if ctor.SameAs(vm.Get("AggregateError")) {
		args = []goja.Value{vm.NewArray(), vm.ToValue(message)}
	}
	obj, err := vm.New(ctor, args...)
	if err != nil {
		return vm.ToValue(v)
	}

	if stack, ok := m["stack"].(string); ok && stack != "" {
		_ = obj.DefineDataProperty("stack", vm.ToValue(stack), goja.FLAG_TRUE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	}
	if stringProp(obj, "name") != name {
		_ = obj.DefineDataProperty("name", vm.ToValue(name), goja.FLAG_TRUE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	}
	if cause, ok := m["cause"]; ok {
		_ = obj.DefineDataProperty("cause", fromPlain(vm, cause), goja.FLAG_TRUE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	}
	if list, ok := m["errors"].([]any); ok {
		items := make([]any, len(list))
		for i, item := range list {
			items[i] = fromPlain(vm, item)
		}
		_ = obj.DefineDataProperty("errors", vm.NewArray(items...), goja.FLAG_TRUE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	}

	for key, val := range m {
		switch key {
		case "name", "message", "stack", "cause", "errors":
			continue
		}
		_ = obj.Set(key, fromPlain(vm, val))
	}
	return obj
}

func isErrorShaped(m map[string]any) bool {
	_, hasName := m["name"].(string)
	_, hasMessage := m["message"].(string)
	return hasName && hasMessage
}

func errorConstructor(vm *goja.Runtime, name string) goja.Value {
	if name != "" {
		if ctor, ok := vm.Get(name).(*goja.Object); ok && isErrorConstructor(vm, ctor) {
			return ctor
		}
	}
	return vm.Get("Error")
}

// isErrorConstructor reports whether ctor.prototype inherits from
// Error.prototype.
func isErrorConstructor(vm *goja.Runtime, ctor *goja.Object) bool {
	if !isFunction(ctor) {
		return false
	}
	base := vm.Get("Error").ToObject(vm).Get("prototype")
	proto, ok := ctor.Get("prototype").(*goja.Object)
	for ok && proto != nil {
		if proto.SameAs(base) {
			return true
		}
		proto = proto.Prototype()
	}
	return false
}
