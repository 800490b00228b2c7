package jsvm_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/dop251/goja"

	"github.com/zoobzio/faultline"
	"github.com/zoobzio/faultline/jsvm"
)

func eval(t *testing.T, vm *goja.Runtime, src string) goja.Value {
	t.Helper()
	v, err := vm.RunString(src)
	if err != nil {
		t.Fatalf("RunString(%q) error = %v", src, err)
	}
	return v
}

func TestWrap_Serialize(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{
			name: "plain object drops functions",
			src:  `({a: 1, b: "x", f: function() {}})`,
			want: map[string]any{"a": int64(1), "b": "x"},
		},
		{
			name: "nested array",
			src:  `[1, "two", [3]]`,
			want: []any{int64(1), "two", []any{int64(3)}},
		},
		{
			name: "self reference",
			src:  `var o = {k: 1}; o.self = o; o`,
			want: map[string]any{"k": int64(1), "self": "[Circular]"},
		},
		{
			name: "shared reference is copied",
			src:  `var s = {v: true}; ({left: s, right: s})`,
			want: map[string]any{
				"left":  map[string]any{"v": true},
				"right": map[string]any{"v": true},
			},
		},
		{
			name: "typed array",
			src:  `({data: new Uint8Array([1, 2, 3])})`,
			want: map[string]any{"data": "[object Buffer]"},
		},
		{
			name: "array buffer",
			src:  `({data: new ArrayBuffer(4)})`,
			want: map[string]any{"data": "[object Buffer]"},
		},
		{
			name: "toJSON",
			src:  `({secret: 1, toJSON: function() { return {shown: true}; }})`,
			want: map[string]any{"shown": true},
		},
		{
			name: "null",
			src:  `null`,
			want: nil,
		},
		{
			name: "string",
			src:  `"plain"`,
			want: "plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := goja.New()
			got := faultline.Serialize(jsvm.Wrap(vm, eval(t, vm, tt.src)))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Serialize() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestWrap_Function(t *testing.T) {
	vm := goja.New()
	got := faultline.Serialize(jsvm.Wrap(vm, eval(t, vm, `(function handler() {})`)))
	if got != "[Function: handler]" {
		t.Errorf("Serialize() = %v, want [Function: handler]", got)
	}
}

func TestWrap_Date(t *testing.T) {
	vm := goja.New()
	got := faultline.Serialize(jsvm.Wrap(vm, eval(t, vm, `({at: new Date(0)})`)))

	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("Serialize() = %T, want map", got)
	}
	if _, ok := m["at"].(time.Time); !ok {
		t.Errorf("at = %T, want time.Time", m["at"])
	}
}

func TestWrap_ErrorObject(t *testing.T) {
	vm := goja.New()
	got := faultline.Serialize(jsvm.Wrap(vm, eval(t, vm, `var e = new TypeError("bad"); e.code = "E_BAD"; e`)))

	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("Serialize() = %T, want map", got)
	}
	if m["name"] != "TypeError" {
		t.Errorf("name = %v, want TypeError", m["name"])
	}
	if m["message"] != "bad" {
		t.Errorf("message = %v, want bad", m["message"])
	}
	if m["code"] != "E_BAD" {
		t.Errorf("code = %v, want E_BAD", m["code"])
	}
	if _, ok := m["stack"].(string); !ok {
		t.Errorf("stack = %T, want string", m["stack"])
	}
}

func TestWrap_IdentityStable(t *testing.T) {
	vm := goja.New()
	w := jsvm.Wrap(vm, eval(t, vm, `var s = {}; ({a: s, b: s})`))

	obj, ok := w.(faultline.Object)
	if !ok {
		t.Fatalf("Wrap() = %T, want faultline.Object", w)
	}
	a, _ := obj.Get("a")
	b, _ := obj.Get("b")
	if a != b {
		t.Error("the same object should wrap to the same value")
	}
}
