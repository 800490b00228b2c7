package faultline

// Deserialize rebuilds a live error from value.
//
// A non-nil error is returned unchanged. An object with a string message
// becomes an instance of the kind its name is registered under, with nested
// error-shaped values rebuilt the same way. Anything else becomes a
// *NonError. Deserialize never fails.
func Deserialize(value any, opts ...Option) error {
	if err, ok := value.(error); ok && !isNilInstanceValue(err) {
		return err
	}
	return reconstruct(value, buildOptions(opts))
}

// reconstruct is Deserialize for callers that need the Instance.
func reconstruct(value any, o options) Instance {
	v := normalize(value)
	if !isViable(v) {
		return NewNonError(value)
	}

	name, _ := property(v, "name")
	message, _ := property(v, "message")
	nameStr, _ := name.(string)
	to := o.registry.New(nameStr, message.(string))

	w := &walker{
		maxDepth:  o.maxDepth,
		serialize: false,
		registry:  o.registry,
	}
	w.walk(v, to, nil, 0)
	return to
}

// isViable reports whether v can seed an error: an object that is not
// array-shaped and has a string message.
func isViable(v any) bool {
	if !isObject(v) || isCallable(v) || isArrayShaped(v) || isBuffer(v) {
		return false
	}
	message, ok := property(v, "message")
	if !ok {
		return false
	}
	_, ok = message.(string)
	return ok
}

func isNilInstanceValue(err error) bool {
	return normalize(err) == nil
}
