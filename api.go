// Package faultline converts errors into plain, codec-safe values and back.
//
// Native Go errors cannot cross every boundary: IPC messages, persisted logs,
// network payloads and script engines all need plain data. Serialize walks an
// error (or any value) into maps, slices and scalars that every codec can
// carry, and Deserialize rebuilds a live error of the right kind on the far
// side.
//
// # Serializing
//
//	err := faultline.NewTypeError("bad input").WithCode("E_INPUT")
//	plain := faultline.Serialize(err)
//	// map[string]any{"name": "TypeError", "message": "bad input",
//	//                "stack": "TypeError: bad input\n    at ...", "code": "E_INPUT"}
//
// The walk is cycle-safe. A value that refers back to one of its own
// ancestors becomes "[Circular]". Byte slices become "[object Buffer]",
// readers, writers and channels become "[object Stream]", and funcs are
// dropped. Shared references that are not ancestors are copied in full.
//
// # Deserializing
//
//	err := faultline.Deserialize(map[string]any{"name": "TypeError", "message": "bad input"})
//	var te *faultline.TypeError
//	errors.As(err, &te) // true
//
// Input with a string message becomes an error of its registered kind.
// Anything else becomes a *NonError whose message is the JSON text of the
// input. Deserialize never fails.
//
// # Kinds
//
// Every kind embeds *Core and is registered by name:
//
//   - Error, EvalError, RangeError, ReferenceError, SyntaxError, TypeError,
//     URIError, AggregateError
//   - SystemError on unix and windows builds, DOMException on js builds
//
// Custom kinds register with Register:
//
//	type QuotaError struct{ *faultline.Core }
//
//	faultline.Register(func(msg string) faultline.Instance {
//	    return &QuotaError{faultline.NewCore("QuotaError", msg)}
//	})
//
// # Options
//
//   - WithMaxDepth(n) truncates the walk below depth n
//   - WithCustomConversion(false) ignores Serializable and json.Marshaler
//   - WithRegistry(r) resolves kinds against r instead of the default registry
//
// # Boundaries
//
// A Processor pairs the walkers with a Codec for the four boundary
// crossings:
//
//   - Store / Load: egress to and ingress from storage
//   - Send / Receive: egress to and ingress from external parties
//
// Send masks and redacts configured keys anywhere in the payload. Receive
// bounds the depth of untrusted input.
//
// # Codec Providers
//
//   - json - JSON encoding (application/json)
//   - yaml - YAML encoding (application/yaml)
//   - msgpack - MessagePack encoding (application/msgpack)
//   - bson - BSON encoding (application/bson)
//
// # Masking
//
// Built-in content-aware maskers:
//
//   - email: alice@example.com → a***@example.com
//   - ip: 192.168.1.100 → 192.168.xxx.xxx
//   - card: 4111111111111111 → ************1111
//   - uuid: 550e8400-e29b-... → 550e8400-****-****-****-************
//   - phone: (555) 123-4567 → (***) ***-4567
//   - secret: hunter2 → *******
package faultline

// Serializable lets a value choose its own serialized form. Serialize
// returns the result as-is instead of walking the value.
//
// A Serialize method may call faultline.Serialize on its own receiver; the
// nested call walks the receiver normally instead of recursing.
type Serializable interface {
	Serialize() any
}
