package faultline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zoobzio/sentinel"
)

func init() {
	sentinel.Tag("json")
}

// Object lets host values that are not Go maps or structs expose their own
// enumerable properties to the walkers.
type Object interface {
	Keys() []string
	Get(key string) (any, bool)
}

// List lets host values present themselves as arrays.
type List interface {
	Len() int
	Index(i int) any
}

// Function marks host values that are callable. FunctionName may be empty.
type Function interface {
	FunctionName() string
}

// IsErrorLike reports whether name, message and stack all resolve to strings
// on v.
func IsErrorLike(v any) bool {
	v = normalize(v)
	if !isObject(v) || isCallable(v) {
		return false
	}
	for _, key := range [...]string{"name", "message", "stack"} {
		val, ok := property(v, key)
		if !ok {
			return false
		}
		if _, ok := val.(string); !ok {
			return false
		}
	}
	return true
}

// normalize collapses nil-able nils to nil and dereferences pointers to
// plain values. Pointers that carry behavior are left alone.
func normalize(v any) any {
	for {
		if v == nil {
			return nil
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Pointer:
			if rv.IsNil() {
				return nil
			}
			if rv.Elem().Kind() == reflect.Struct || hasBehavior(v) {
				return v
			}
			v = rv.Elem().Interface()
		case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
			if rv.IsNil() {
				return nil
			}
			return v
		default:
			return v
		}
	}
}

func hasBehavior(v any) bool {
	switch v.(type) {
	case error, ErrorLike, Object, List, Function, Serializable, json.Marshaler, io.Reader, io.Writer:
		return true
	}
	return false
}

// isObject reports whether v is walked rather than copied.
func isObject(v any) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case Instance, error, ErrorLike, Object, List:
		return true
	case time.Time, *time.Time:
		return false
	}
	if isBuffer(v) || isStream(v) {
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		return true
	}
	return false
}

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(Function); ok {
		return true
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}

func isArrayShaped(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(List); ok {
		return true
	}
	if isByteSequence(reflect.TypeOf(v)) {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

func isByteSequence(rt reflect.Type) bool {
	switch rt.Kind() {
	case reflect.Slice, reflect.Array:
		return rt.Elem().Kind() == reflect.Uint8
	}
	return false
}

func isBuffer(v any) bool {
	switch v.(type) {
	case *bytes.Buffer, *bytes.Reader:
		return true
	}
	return v != nil && isByteSequence(reflect.TypeOf(v))
}

func isStream(v any) bool {
	if v == nil {
		return false
	}
	switch x := v.(type) {
	case Instance:
		return false
	case io.Reader, io.Writer:
		return true
	case Object:
		pipe, ok := x.Get("pipe")
		return ok && isCallable(normalize(pipe))
	}
	return reflect.TypeOf(v).Kind() == reflect.Chan
}

// identity is what cycle detection compares. Values without one never
// match an ancestor.
type identity struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

func identityOf(v any) (identity, bool) {
	if v == nil {
		return identity{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return identity{}, false
		}
		return identity{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		if rv.Len() == 0 {
			return identity{}, false
		}
		return identity{typ: rv.Type(), ptr: rv.Pointer(), n: rv.Len()}, true
	}
	return identity{}, false
}

type ancestors []identity

func (a ancestors) contains(v any) bool {
	id, ok := identityOf(v)
	if !ok {
		return false
	}
	for _, seen := range a {
		if seen == id {
			return true
		}
	}
	return false
}

func (a ancestors) with(v any) ancestors {
	out := make(ancestors, len(a), len(a)+1)
	copy(out, a)
	if id, ok := identityOf(v); ok {
		out = append(out, id)
	}
	return out
}

// entry is one own enumerable property. index is set for list elements.
type entry struct {
	key   string
	index int
	value any
}

// entries lists the own enumerable properties of an object.
func entries(v any) []entry {
	switch x := v.(type) {
	case Instance:
		base := x.Base()
		keys := base.Keys()
		out := make([]entry, 0, len(keys))
		for _, k := range keys {
			val, _ := base.Property(k)
			out = append(out, entry{key: k, index: -1, value: val})
		}
		return append(out, structEntries(v, true)...)
	case Object:
		keys := x.Keys()
		out := make([]entry, 0, len(keys))
		for _, k := range keys {
			if val, ok := x.Get(k); ok {
				out = append(out, entry{key: k, index: -1, value: val})
			}
		}
		return out
	case List:
		out := make([]entry, x.Len())
		for i := range out {
			out[i] = entry{key: strconv.Itoa(i), index: i, value: x.Index(i)}
		}
		return out
	case *bytes.Buffer:
		return byteEntries(x.Bytes())
	case *bytes.Reader:
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]entry, rv.Len())
		for i := range out {
			out[i] = entry{key: strconv.Itoa(i), index: i, value: rv.Index(i).Interface()}
		}
		return out
	case reflect.Map:
		return mapEntries(rv)
	case reflect.Struct, reflect.Pointer:
		return structEntries(v, false)
	}
	return nil
}

// byteEntries yields the buffer's bytes as byte values, the same element
// type a []byte walks to.
func byteEntries(b []byte) []entry {
	out := make([]entry, len(b))
	for i, c := range b {
		out[i] = entry{key: strconv.Itoa(i), index: i, value: c}
	}
	return out
}

// mapEntries sorts keys so output order is stable.
func mapEntries(rv reflect.Value) []entry {
	out := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out = append(out, entry{key: mapKey(iter.Key()), index: -1, value: iter.Value().Interface()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

// structEntries lists exported fields under their json names. Embedded
// fields are skipped for Instances so the embedded *Core does not appear
// as a property of its own kind.
func structEntries(v any, skipEmbedded bool) []entry {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	fields := fieldsOf(rv.Type())
	out := make([]entry, 0, len(fields))
	for _, f := range fields {
		if skipEmbedded && f.embedded {
			continue
		}
		out = append(out, entry{key: f.name, index: -1, value: rv.FieldByIndex(f.index).Interface()})
	}
	return out
}

// property reads one key from any object shape.
func property(v any, key string) (any, bool) {
	switch x := v.(type) {
	case Instance:
		return x.Base().Property(key)
	case Object:
		return x.Get(key)
	}

	if el, ok := v.(ErrorLike); ok {
		switch key {
		case "name":
			return el.Name(), true
		case "message":
			return el.Message(), true
		case "stack":
			return el.Stack(), true
		}
	}
	if err, ok := v.(error); ok {
		if val, ok := foreignField(err, key); ok {
			return val, true
		}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String {
			return nil, false
		}
		val := rv.MapIndex(reflect.ValueOf(key).Convert(kt))
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	for _, f := range fieldsOf(rv.Type()) {
		if f.name == key {
			return rv.FieldByIndex(f.index).Interface(), true
		}
	}
	return nil, false
}

// foreignField gives Go errors the error shape. Struct fields are consulted
// only when no accessor answers.
func foreignField(err error, key string) (any, bool) {
	switch key {
	case "name":
		return foreignName(err), true
	case "message":
		return err.Error(), true
	case "stack":
		return "", true
	case "code":
		switch c := err.(type) {
		case interface{ Code() string }:
			return c.Code(), true
		case interface{ Code() int }:
			return c.Code(), true
		case interface{ Code() any }:
			return c.Code(), true
		}
	case "cause":
		if u, ok := err.(interface{ Unwrap() error }); ok {
			if cause := u.Unwrap(); cause != nil {
				return cause, true
			}
		}
	case "errors":
		if u, ok := err.(interface{ Unwrap() []error }); ok {
			return toAnyList(u.Unwrap()), true
		}
	}
	return nil, false
}

func foreignName(err error) string {
	rt := reflect.TypeOf(err)
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if name := rt.Name(); name != "" && isExportedName(name) {
		return name
	}
	if _, ok := err.(interface{ Unwrap() []error }); ok {
		return aggregateErrorName
	}
	return errorName
}

func isExportedName(name string) bool {
	return name[0] >= 'A' && name[0] <= 'Z'
}

func toAnyList(errs []error) []any {
	out := make([]any, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// structField is an exported field and the name the walkers expose it as.
type structField struct {
	name     string
	index    []int
	embedded bool
}

var fieldCache sync.Map // reflect.Type -> []structField

func fieldsOf(rt reflect.Type) []structField {
	if cached, ok := fieldCache.Load(rt); ok {
		return cached.([]structField)
	}
	fields := buildFields(rt)
	actual, _ := fieldCache.LoadOrStore(rt, fields)
	return actual.([]structField)
}

func buildFields(rt reflect.Type) []structField {
	return fieldsFrom(rt, structMetadata(rt))
}

// fieldsFrom names the exported fields meta lists by their json tags.
func fieldsFrom(rt reflect.Type, meta sentinel.Metadata) []structField {
	out := make([]structField, 0, len(meta.Fields))
	for _, fm := range meta.Fields {
		sf := rt.FieldByIndex(fm.Index)
		if !sf.IsExported() {
			continue
		}
		tag, ok := fm.Tags["json"]
		if !ok {
			tag = sf.Tag.Get("json")
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		out = append(out, structField{name: name, index: fm.Index, embedded: sf.Anonymous})
	}
	return out
}

// structMetadata prefers metadata sentinel already holds for rt and scans
// the type itself otherwise. Sentinel keys types by bare name, so the
// package must match too.
func structMetadata(rt reflect.Type) sentinel.Metadata {
	if rt.Name() != "" {
		if meta, ok := sentinel.Lookup(rt.Name()); ok && meta.PackageName == rt.PkgPath() {
			return meta
		}
	}

	meta := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        map[string]string{},
		}
		if tag, ok := sf.Tag.Lookup("json"); ok {
			fm.Tags["json"] = tag
		}
		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}
		meta.Fields = append(meta.Fields, fm)
	}
	return meta
}

// functionName resolves the display name of a callable.
func functionName(v any) string {
	if f, ok := v.(Function); ok {
		if name := f.FunctionName(); name != "" {
			return name
		}
		return "anonymous"
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return "anonymous"
	}
	fn := runtime.FuncForPC(rv.Pointer())
	if fn == nil {
		return "anonymous"
	}
	return shortFuncName(fn.Name())
}

// shortFuncName turns "example.com/pkg.(*T).Method-fm" into "Method".
// Closures are anonymous.
func shortFuncName(symbol string) string {
	if i := strings.LastIndex(symbol, "/"); i >= 0 {
		symbol = symbol[i+1:]
	}
	symbol = strings.TrimSuffix(symbol, "-fm")
	if i := strings.Index(symbol, "["); i >= 0 {
		if j := strings.LastIndex(symbol, "]"); j > i {
			symbol = symbol[:i] + symbol[j+1:]
		}
	}
	parts := strings.Split(symbol, ".")
	if len(parts) < 2 {
		return "anonymous"
	}
	for _, p := range parts[1:] {
		if isClosureSegment(p) {
			return "anonymous"
		}
	}
	return parts[len(parts)-1]
}

func isClosureSegment(s string) bool {
	if s == "func" {
		return true
	}
	if !strings.HasPrefix(s, "func") {
		return false
	}
	_, err := strconv.Atoi(s[len("func"):])
	return err == nil
}
