package faultline

import (
	"encoding/json"
	"reflect"
	"sync"
)

// Placeholders written in place of values that cannot travel.
const (
	circularMarker = "[Circular]"
	bufferMarker   = "[object Buffer]"
	streamMarker   = "[object Stream]"
)

// errorFieldKeys are copied from error-shaped sources even though most of
// them are not enumerable.
var errorFieldKeys = [...]string{"name", "message", "stack", "code", "cause", "errors"}

// walker holds the settings of one Serialize or Deserialize call.
type walker struct {
	maxDepth   int
	conversion bool
	serialize  bool
	registry   *Registry
}

// destination is the value a walk builds.
type destination struct {
	list []any
	obj  map[string]any
	inst Instance
}

func (d *destination) put(e entry, v any) {
	switch {
	case d.inst != nil:
		if setField(d.inst, e.key, v) {
			return
		}
		_ = d.inst.Base().Set(e.key, v)
	case d.obj != nil:
		d.obj[e.key] = v
	default:
		if e.index < 0 {
			return
		}
		for len(d.list) <= e.index {
			d.list = append(d.list, nil)
		}
		d.list[e.index] = v
	}
}

// setField assigns v to the exported field of a custom kind exposed as key.
// Numbers convert between numeric kinds; anything else must be assignable.
func setField(inst Instance, key string, v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(inst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return false
	}
	rv = rv.Elem()
	for _, f := range fieldsOf(rv.Type()) {
		if f.embedded || f.name != key {
			continue
		}
		field := rv.FieldByIndex(f.index)
		val := reflect.ValueOf(v)
		switch {
		case !field.CanSet():
			return false
		case val.Type().AssignableTo(field.Type()):
			field.Set(val)
		case isNumberKind(val.Kind()) && isNumberKind(field.Kind()):
			field.Set(val.Convert(field.Type()))
		default:
			return false
		}
		return true
	}
	return false
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func (d *destination) value() any {
	switch {
	case d.inst != nil:
		return d.inst
	case d.obj != nil:
		return d.obj
	default:
		return d.list
	}
}

// walk copies the object from into a fresh destination, or into into when
// one is given.
func (w *walker) walk(from any, into Instance, seen ancestors, depth int) any {
	dst := w.allocate(from, into)
	seen = seen.with(from)

	if depth >= w.maxDepth {
		return dst.value()
	}

	if converted, ok := w.convert(from); ok {
		return converted
	}

	for _, e := range entries(from) {
		v := normalize(e.value)
		switch {
		case isBuffer(v):
			dst.put(e, bufferMarker)
		case isStream(v):
			dst.put(e, streamMarker)
		case isCallable(v):
		case !isObject(v):
			dst.put(e, v)
		case seen.contains(v):
			dst.put(e, circularMarker)
		default:
			dst.put(e, w.walk(v, nil, seen, depth+1))
		}
	}

	if dst.list == nil && (w.serialize || dst.inst != nil) {
		for _, key := range errorFieldKeys {
			raw, ok := property(from, key)
			if !ok {
				continue
			}
			v := normalize(raw)
			if v == nil {
				continue
			}
			e := entry{key: key, index: -1}
			switch {
			case isCallable(v):
				continue
			case isBuffer(v):
				dst.put(e, bufferMarker)
			case isStream(v):
				dst.put(e, streamMarker)
			case !isObject(v):
				dst.put(e, v)
			case seen.contains(v):
				dst.put(e, circularMarker)
			default:
				dst.put(e, w.walk(v, nil, seen, depth+1))
			}
		}
	}

	return dst.value()
}

func (w *walker) allocate(from any, into Instance) *destination {
	switch {
	case into != nil:
		return &destination{inst: into}
	case isArrayShaped(from) || isByteSequenceValue(from) || isBytesBuffer(from):
		return &destination{list: []any{}}
	case !w.serialize && IsErrorLike(from):
		name, _ := property(from, "name")
		s, _ := name.(string)
		return &destination{inst: w.registry.New(s, "")}
	default:
		return &destination{obj: map[string]any{}}
	}
}

func isByteSequenceValue(v any) bool {
	return v != nil && isByteSequence(reflect.TypeOf(v))
}

func isBytesBuffer(v any) bool {
	_, ok := v.(interface{ Bytes() []byte })
	return ok && isBuffer(v)
}

// convert runs the custom conversion hook. Live instances never convert.
func (w *walker) convert(from any) (any, bool) {
	if !w.conversion {
		return nil, false
	}
	if _, ok := from.(Instance); ok {
		return nil, false
	}

	switch x := from.(type) {
	case Serializable:
		if key, ok := guardKey(from); ok {
			if !converting.enter(key) {
				return nil, false
			}
			defer converting.leave(key)
		}
		return x.Serialize(), true
	case json.Marshaler:
		if key, ok := guardKey(from); ok {
			if !converting.enter(key) {
				return nil, false
			}
			defer converting.leave(key)
		}
		data, err := x.MarshalJSON()
		if err != nil {
			return nil, false
		}
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, false
		}
		return out, true
	}
	return nil, false
}

// guardKey is the value's identity, or the value itself when it has none
// but can be compared. Values that are neither are not guarded, so their
// hooks always run.
func guardKey(v any) (any, bool) {
	if id, ok := identityOf(v); ok {
		return id, true
	}
	if rv := reflect.ValueOf(v); rv.IsValid() && rv.Comparable() {
		return v, true
	}
	return nil, false
}

// conversionGuard records values whose hook is running so a hook that
// serializes its own receiver does not recurse.
type conversionGuard struct {
	mu     sync.Mutex
	active map[any]struct{}
}

var converting = &conversionGuard{active: make(map[any]struct{})}

func (g *conversionGuard) enter(key any) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[key]; busy {
		return false
	}
	g.active[key] = struct{}{}
	return true
}

func (g *conversionGuard) leave(key any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, key)
}
