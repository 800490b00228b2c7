package faultline

// Serialize converts value into plain data: maps, slices and scalars.
//
// nil stays nil, a func becomes "[Function: name]" and other scalars pass
// through. Objects are walked with every key visible; cycles become
// "[Circular]".
func Serialize(value any, opts ...Option) any {
	o := buildOptions(opts)

	v := normalize(value)
	switch {
	case v == nil:
		return nil
	case isCallable(v):
		return "[Function: " + functionName(v) + "]"
	case !isObject(v):
		return v
	}

	w := &walker{
		maxDepth:   o.maxDepth,
		conversion: o.conversion,
		serialize:  true,
		registry:   o.registry,
	}
	return w.walk(v, nil, nil, 0)
}
