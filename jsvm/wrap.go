// Package jsvm carries errors between goja scripts and Go.
//
// Wrap adapts JavaScript values so the faultline walkers can read them,
// FromException turns a thrown value into a Go error of the matching kind,
// and ToValue builds a JavaScript error from a Go one.
package jsvm

import (
	"reflect"
	"strconv"

	"github.com/dop251/goja"

	"github.com/zoobzio/faultline"
)

var arrayBufferType = reflect.TypeOf(goja.ArrayBuffer{})

// Wrap adapts v for faultline.Serialize and faultline.Deserialize.
//
// Primitives are exported. Arrays become faultline.List values, functions
// become faultline.Function values, ArrayBuffers and typed arrays become
// byte slices, dates become time.Time, and every other object becomes a
// faultline.Object. Wrapping the same JavaScript object twice within one
// call yields the same Go value, so cycles are detected.
func Wrap(vm *goja.Runtime, v goja.Value) any {
	w := &wrapper{vm: vm, seen: make(map[*goja.Object]any)}
	return w.wrap(v)
}

type wrapper struct {
	vm   *goja.Runtime
	seen map[*goja.Object]any
}

func (w *wrapper) wrap(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.Export()
	}
	if cached, ok := w.seen[obj]; ok {
		return cached
	}

	var out any
	switch {
	case isFunction(obj):
		out = &function{name: stringProp(obj, "name")}
	case obj.ExportType() == arrayBufferType:
		out = arrayBufferBytes(obj)
	case isTypedArray(obj):
		out = typedArrayBytes(obj)
	case obj.ClassName() == "Date":
		out = obj.Export()
	case obj.ClassName() == "Array":
		out = &array{w: w, obj: obj}
	default:
		o := &object{w: w, obj: obj}
		if fn, ok := goja.AssertFunction(obj.Get("toJSON")); ok {
			out = &serializable{object: o, toJSON: fn}
		} else {
			out = o
		}
	}
	w.seen[obj] = out
	return out
}

func isFunction(obj *goja.Object) bool {
	_, ok := goja.AssertFunction(obj)
	return ok
}

func stringProp(obj *goja.Object, key string) string {
	v := obj.Get(key)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

func arrayBufferBytes(obj *goja.Object) []byte {
	ab, ok := obj.Export().(goja.ArrayBuffer)
	if !ok {
		return []byte{}
	}
	return append([]byte{}, ab.Bytes()...)
}

// isTypedArray matches typed arrays and DataViews: views over an ArrayBuffer.
func isTypedArray(obj *goja.Object) bool {
	buf, ok := obj.Get("buffer").(*goja.Object)
	if !ok || buf.ExportType() != arrayBufferType {
		return false
	}
	return obj.Get("byteLength") != nil && obj.Get("byteOffset") != nil
}

func typedArrayBytes(obj *goja.Object) []byte {
	buf := arrayBufferBytes(obj.Get("buffer").(*goja.Object))
	off := int(obj.Get("byteOffset").ToInteger())
	n := int(obj.Get("byteLength").ToInteger())
	if off < 0 || n < 0 || off+n > len(buf) {
		return []byte{}
	}
	return buf[off : off+n]
}

// object exposes a plain JavaScript object. Get follows the prototype
// chain, so name and message resolve on error objects.
type object struct {
	w   *wrapper
	obj *goja.Object
}

func (o *object) Keys() []string {
	return o.obj.Keys()
}

func (o *object) Get(key string) (any, bool) {
	v := o.obj.Get(key)
	if v == nil || goja.IsUndefined(v) {
		if key == "stack" && o.obj.ClassName() == "Error" {
			return "", true
		}
		return nil, false
	}
	return o.w.wrap(v), true
}

// serializable is an object with a callable toJSON.
type serializable struct {
	*object
	toJSON goja.Callable
}

func (s *serializable) Serialize() any {
	v, err := s.toJSON(s.obj)
	if err != nil || v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

type array struct {
	w   *wrapper
	obj *goja.Object
}

func (a *array) Len() int {
	return int(a.obj.Get("length").ToInteger())
}

func (a *array) Index(i int) any {
	return a.w.wrap(a.obj.Get(strconv.Itoa(i)))
}

type function struct {
	name string
}

func (f *function) FunctionName() string { return f.name }

var (
	_ faultline.Object       = (*object)(nil)
	_ faultline.Serializable = (*serializable)(nil)
	_ faultline.List         = (*array)(nil)
	_ faultline.Function     = (*function)(nil)
)
