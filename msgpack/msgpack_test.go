package msgpack

import (
	"testing"
)

func TestNew(t *testing.T) {
	c := New()
	if c == nil {
		t.Error("New() should return non-nil codec")
	}
}

func TestContentType(t *testing.T) {
	c := New()
	if c.ContentType() != "application/msgpack" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/msgpack")
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	c := New()

	original := map[string]any{
		"name":    "SyntaxError",
		"message": "unexpected token",
		"code":    42,
	}

	data, err := c.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var restored any
	if err := c.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	m, ok := restored.(map[string]any)
	if !ok {
		t.Fatalf("Unmarshal() = %T, want map[string]any", restored)
	}
	if m["name"] != "SyntaxError" || m["message"] != "unexpected token" {
		t.Errorf("round-trip failed: got %+v", m)
	}
	if m["code"] != int64(42) {
		t.Errorf("code = %#v, want int64(42)", m["code"])
	}
}

func TestMarshalUsesJSONTags(t *testing.T) {
	c := New()

	type payload struct {
		Message string `json:"message"`
	}

	data, err := c.Marshal(payload{Message: "hi"})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var restored map[string]any
	if err := c.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if restored["message"] != "hi" {
		t.Errorf("restored = %+v, want message key", restored)
	}
}

func TestMarshalBinary(t *testing.T) {
	c := New()

	data, err := c.Marshal(map[string]int{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	// MessagePack is binary, should not be valid UTF-8 JSON
	if data[0] == '{' {
		t.Error("MessagePack output should be binary, not JSON")
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	c := New()

	var v map[string]any
	err := c.Unmarshal([]byte("not msgpack"), &v)
	if err == nil {
		t.Error("Unmarshal(invalid) should return error")
	}
}
