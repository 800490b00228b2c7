package faultline

import "math"

// Option configures a Serialize or Deserialize call.
type Option func(*options)

type options struct {
	maxDepth   int
	conversion bool
	registry   *Registry
}

func defaultOptions() options {
	return options{
		maxDepth:   math.MaxInt,
		conversion: true,
		registry:   defaultRegistry,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithMaxDepth stops the walk at depth n: objects found there are emitted
// empty. A negative n means unbounded.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = math.MaxInt
		}
		o.maxDepth = n
	}
}

// WithCustomConversion toggles the Serializable and json.Marshaler hooks.
// Deserialize ignores it.
func WithCustomConversion(enabled bool) Option {
	return func(o *options) { o.conversion = enabled }
}

// WithRegistry resolves kinds against r.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}
