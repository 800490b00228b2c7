package faultline

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"sync"
	"time"
)

// DefaultReceiveMaxDepth bounds how deep Receive rebuilds untrusted input.
const DefaultReceiveMaxDepth = 32

// Processor carries errors across boundaries through a Codec.
// Use Load/Receive for ingress and Store/Send for egress.
//
// Processors are safe for concurrent use. SetMasker may be called at any
// time to swap a masker.
type Processor struct {
	codec    Codec
	registry *Registry

	storeDepth   int
	receiveDepth int

	// Key rules (immutable after construction)
	masks      map[string]MaskType
	redactions map[string]string

	// Mutable configuration protected by mu
	mu      sync.RWMutex
	maskers map[MaskType]Masker

	// Validation state (runs once on first operation)
	validateOnce sync.Once
	validateErr  error
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorRegistry resolves kinds against r on Load and Receive.
func WithProcessorRegistry(r *Registry) ProcessorOption {
	return func(p *Processor) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithStoreMaxDepth bounds the depth of Store and Send payloads.
// A negative n means unbounded, which is the default.
func WithStoreMaxDepth(n int) ProcessorOption {
	return func(p *Processor) {
		if n < 0 {
			n = math.MaxInt
		}
		p.storeDepth = n
	}
}

// WithReceiveMaxDepth bounds the depth Receive rebuilds.
// A negative n means unbounded.
func WithReceiveMaxDepth(n int) ProcessorOption {
	return func(p *Processor) {
		if n < 0 {
			n = math.MaxInt
		}
		p.receiveDepth = n
	}
}

// WithMask masks the value of every key named key in Send payloads.
func WithMask(key string, mt MaskType) ProcessorOption {
	return func(p *Processor) { p.masks[key] = mt }
}

// WithRedact replaces the value of every key named key in Send payloads.
func WithRedact(key, replacement string) ProcessorOption {
	return func(p *Processor) { p.redactions[key] = replacement }
}

// NewProcessor creates a Processor for codec with the builtin maskers.
// It fails when a WithMask option names an unknown mask type.
func NewProcessor(codec Codec, opts ...ProcessorOption) (*Processor, error) {
	p := &Processor{
		codec:        codec,
		registry:     defaultRegistry,
		storeDepth:   math.MaxInt,
		receiveDepth: DefaultReceiveMaxDepth,
		masks:        make(map[string]MaskType),
		redactions:   make(map[string]string),
		maskers:      builtinMaskers(),
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, key := range sortedKeys(p.masks) {
		if mt := p.masks[key]; !IsValidMaskType(mt) {
			return nil, fmt.Errorf("%w: mask type %q for key %s", ErrInvalidAlgorithm, mt, key)
		}
	}

	emitProcessorCreated(context.Background(), codec.ContentType())
	return p, nil
}

// ContentType reports the codec's content type.
func (p *Processor) ContentType() string { return p.codec.ContentType() }

// Registry returns the registry Load and Receive resolve kinds against.
func (p *Processor) Registry() *Registry { return p.registry }

// SetMasker registers a masker for the given type.
// Returns the processor for chaining. Safe for concurrent use.
func (p *Processor) SetMasker(mt MaskType, m Masker) *Processor {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maskers[mt] = m
	return p
}

// Validate checks that every masked key has a masker.
// Validation also runs automatically on first Send.
func (p *Processor) Validate() error {
	return p.ensureValidated()
}

func (p *Processor) ensureValidated() error {
	p.validateOnce.Do(func() {
		p.mu.RLock()
		defer p.mu.RUnlock()
		for _, key := range sortedKeys(p.masks) {
			mt := p.masks[key]
			if m, ok := p.maskers[mt]; !ok || m == nil {
				p.validateErr = fmt.Errorf("missing masker for type %q (key %s)", mt, key)
				return
			}
		}
	})
	return p.validateErr
}

// Store serializes err and marshals the result.
// Use for errors going to storage (database, log files).
func (p *Processor) Store(ctx context.Context, err error) ([]byte, error) {
	start := time.Now()
	kind := KindOf(err)
	emitStoreStart(ctx, p.codec.ContentType(), kind)

	var retErr error
	var retData []byte
	defer func() {
		emitStoreComplete(ctx, p.codec.ContentType(), kind, len(retData), time.Since(start), retErr)
	}()

	retData, retErr = p.marshal(p.serialize(err))
	return retData, retErr
}

// Load unmarshals data and rebuilds the error it holds.
// Use for errors coming from storage. A stored nil loads as nil.
//
//nolint:dupl // Intentional parallel structure with Receive for boundary operations
func (p *Processor) Load(ctx context.Context, data []byte) (Instance, error) {
	start := time.Now()
	emitLoadStart(ctx, p.codec.ContentType(), len(data))

	var kind string
	var retErr error
	defer func() {
		emitLoadComplete(ctx, p.codec.ContentType(), kind, time.Since(start), retErr)
	}()

	inst, err := p.unmarshal(data, math.MaxInt)
	if err != nil {
		retErr = err
		return nil, retErr
	}
	kind = KindOf(inst)
	return inst, nil
}

// Receive unmarshals data from an external party and rebuilds the error it
// holds, bounded by the receive depth.
//
//nolint:dupl // Intentional parallel structure with Load for boundary operations
func (p *Processor) Receive(ctx context.Context, data []byte) (Instance, error) {
	start := time.Now()
	emitReceiveStart(ctx, p.codec.ContentType(), len(data))

	var kind string
	var retErr error
	defer func() {
		emitReceiveComplete(ctx, p.codec.ContentType(), kind, p.receiveDepth, time.Since(start), retErr)
	}()

	inst, err := p.unmarshal(data, p.receiveDepth)
	if err != nil {
		retErr = err
		return nil, retErr
	}
	kind = KindOf(inst)
	return inst, nil
}

// Send serializes err, applies masks and redactions, and marshals the
// result. Use for errors going to external destinations (API responses,
// events).
func (p *Processor) Send(ctx context.Context, err error) ([]byte, error) {
	if verr := p.ensureValidated(); verr != nil {
		return nil, verr
	}

	start := time.Now()
	kind := KindOf(err)
	emitSendStart(ctx, p.codec.ContentType(), kind)

	var retErr error
	var retData []byte
	var masked, redacted int
	defer func() {
		emitSendComplete(ctx, p.codec.ContentType(), kind, len(retData), time.Since(start), masked, redacted, retErr)
	}()

	payload := p.serialize(err)

	p.mu.RLock()
	defer p.mu.RUnlock()

	// Apply mask - check for override interface
	if m, ok := err.(Maskable); ok {
		if obj, isObj := payload.(map[string]any); isObj {
			if merr := m.Mask(obj, p.maskers); merr != nil {
				retErr = fmt.Errorf("mask: %w", merr)
				return nil, retErr
			}
		}
	} else {
		masked = p.applyMask(payload)
	}

	// Apply redact - check for override interface
	if r, ok := err.(Redactable); ok {
		if obj, isObj := payload.(map[string]any); isObj {
			if rerr := r.Redact(obj); rerr != nil {
				retErr = fmt.Errorf("redact: %w", rerr)
				return nil, retErr
			}
		}
	} else {
		redacted = p.applyRedact(payload)
	}

	retData, retErr = p.marshal(payload)
	return retData, retErr
}

func (p *Processor) serialize(err error) any {
	if err == nil {
		return nil
	}
	return Serialize(err, WithMaxDepth(p.storeDepth), WithRegistry(p.registry))
}

func (p *Processor) marshal(payload any) ([]byte, error) {
	data, err := p.codec.Marshal(payload)
	if err != nil {
		return nil, newCodecError(ErrMarshal, err)
	}
	return data, nil
}

func (p *Processor) unmarshal(data []byte, depth int) (Instance, error) {
	var payload any
	if err := p.codec.Unmarshal(data, &payload); err != nil {
		return nil, newCodecError(ErrUnmarshal, err)
	}
	if payload == nil {
		return nil, nil
	}
	o := defaultOptions()
	o.maxDepth = depth
	o.registry = p.registry
	return reconstruct(payload, o), nil
}

// applyMask masks values under masked keys anywhere in the payload and
// reports how many it changed.
func (p *Processor) applyMask(payload any) int {
	if len(p.masks) == 0 {
		return 0
	}
	count := 0
	visit(payload, func(obj map[string]any) {
		for key, mt := range p.masks {
			val, ok := obj[key]
			m := p.maskers[mt]
			if !ok || val == nil || m == nil {
				continue
			}
			s, isString := val.(string)
			if !isString {
				if isObject(val) {
					continue
				}
				s = fmt.Sprint(val)
			}
			obj[key] = m.Mask(s)
			count++
		}
	})
	return count
}

// applyRedact replaces values under redacted keys anywhere in the payload
// and reports how many it replaced.
func (p *Processor) applyRedact(payload any) int {
	if len(p.redactions) == 0 {
		return 0
	}
	count := 0
	visit(payload, func(obj map[string]any) {
		for key, replacement := range p.redactions {
			if _, ok := obj[key]; ok {
				obj[key] = replacement
				count++
			}
		}
	})
	return count
}

// visit calls fn on every map in a plain tree, once each.
func visit(v any, fn func(map[string]any)) {
	seen := make(map[uintptr]bool)
	var walk func(any)
	walk = func(v any) {
		switch x := v.(type) {
		case map[string]any:
			ptr := reflect.ValueOf(x).Pointer()
			if seen[ptr] {
				return
			}
			seen[ptr] = true
			fn(x)
			for _, child := range x {
				walk(child)
			}
		case []any:
			for _, child := range x {
				walk(child)
			}
		}
	}
	walk(v)
}

// KindOf names the kind of err: its Name for error-like values, the Go
// type name otherwise, and "" for nil.
func KindOf(err error) string {
	if err == nil || isNilInstanceValue(err) {
		return ""
	}
	if el, ok := err.(ErrorLike); ok {
		return el.Name()
	}
	return foreignName(err)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// processors caches default-option processors by content type.
var (
	processors   = make(map[string]*Processor)
	processorsMu sync.RWMutex
)

// Use returns a cached default processor for codec, building it on first
// use.
func Use(codec Codec) *Processor {
	key := codec.ContentType()

	// Fast path: read-lock cache check
	processorsMu.RLock()
	if cached, ok := processors[key]; ok {
		processorsMu.RUnlock()
		return cached
	}
	processorsMu.RUnlock()

	// Slow path: build and cache with write-lock
	processorsMu.Lock()
	defer processorsMu.Unlock()

	// Double-check pattern
	if cached, ok := processors[key]; ok {
		return cached
	}

	// No options, so construction cannot fail.
	p, _ := NewProcessor(codec)
	processors[key] = p
	return p
}

// Reset clears the processor cache.
// This is primarily useful for test isolation.
func Reset() {
	processorsMu.Lock()
	defer processorsMu.Unlock()
	processors = make(map[string]*Processor)
}
