package faultline

// Override interfaces let an error type sanitize its own payload on Send.
// When the error passed to Processor.Send implements one of these, the
// processor calls it instead of applying the key-based rules for that
// action.

// Maskable replaces key-based masking for an error type.
type Maskable interface {
	// Mask rewrites the serialized payload in place.
	// The maskers map contains all registered maskers keyed by type.
	Mask(payload map[string]any, maskers map[MaskType]Masker) error
}

// Redactable replaces key-based redaction for an error type.
type Redactable interface {
	// Redact rewrites the serialized payload in place.
	Redact(payload map[string]any) error
}
