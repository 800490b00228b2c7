package faultline

import (
	"context"
	"math"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for registry and processor events.
var (
	SignalConstructorRegistered = capitan.NewSignal("faultline.constructor.registered", "Error constructor registered")
	SignalConstructorRejected   = capitan.NewSignal("faultline.constructor.rejected", "Error constructor rejected")
	SignalProcessorCreated      = capitan.NewSignal("faultline.processor.created", "Processor instantiated")
	SignalReceiveStart          = capitan.NewSignal("faultline.receive.start", "Receive operation beginning")
	SignalReceiveComplete       = capitan.NewSignal("faultline.receive.complete", "Receive operation finished")
	SignalLoadStart             = capitan.NewSignal("faultline.load.start", "Load operation beginning")
	SignalLoadComplete          = capitan.NewSignal("faultline.load.complete", "Load operation finished")
	SignalStoreStart            = capitan.NewSignal("faultline.store.start", "Store operation beginning")
	SignalStoreComplete         = capitan.NewSignal("faultline.store.complete", "Store operation finished")
	SignalSendStart             = capitan.NewSignal("faultline.send.start", "Send operation beginning")
	SignalSendComplete          = capitan.NewSignal("faultline.send.complete", "Send operation finished")
)

// Keys for typed event data.
var (
	KeyContentType   = capitan.NewStringKey("content_type")
	KeyKind          = capitan.NewStringKey("kind")
	KeySize          = capitan.NewIntKey("size")
	KeyDepth         = capitan.NewIntKey("depth")
	KeyDuration      = capitan.NewDurationKey("duration")
	KeyError         = capitan.NewErrorKey("error")
	KeyMaskedCount   = capitan.NewIntKey("masked_count")
	KeyRedactedCount = capitan.NewIntKey("redacted_count")
)

func emitConstructorRegistered(ctx context.Context, kind string) {
	capitan.Emit(ctx, SignalConstructorRegistered, KeyKind.Field(kind))
}

func emitConstructorRejected(ctx context.Context, kind string, err error) {
	capitan.Error(ctx, SignalConstructorRejected,
		KeyKind.Field(kind),
		KeyError.Field(err),
	)
}

func emitProcessorCreated(ctx context.Context, contentType string) {
	capitan.Emit(ctx, SignalProcessorCreated, KeyContentType.Field(contentType))
}

// emitReceiveStart emits an event when receive begins.
func emitReceiveStart(ctx context.Context, contentType string, size int) {
	capitan.Emit(ctx, SignalReceiveStart,
		KeyContentType.Field(contentType),
		KeySize.Field(size),
	)
}

// emitReceiveComplete emits an event when receive finishes.
func emitReceiveComplete(ctx context.Context, contentType, kind string, depth int, duration time.Duration, err error) {
	fields := ingressFields(contentType, kind, depth, duration)
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalReceiveComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalReceiveComplete, fields...)
	}
}

// emitLoadStart emits an event when load begins.
func emitLoadStart(ctx context.Context, contentType string, size int) {
	capitan.Emit(ctx, SignalLoadStart,
		KeyContentType.Field(contentType),
		KeySize.Field(size),
	)
}

// emitLoadComplete emits an event when load finishes.
// Loads are unbounded, so the event carries no depth.
func emitLoadComplete(ctx context.Context, contentType, kind string, duration time.Duration, err error) {
	fields := ingressFields(contentType, kind, math.MaxInt, duration)
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalLoadComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalLoadComplete, fields...)
	}
}

// emitStoreStart emits an event when store begins.
func emitStoreStart(ctx context.Context, contentType, kind string) {
	capitan.Emit(ctx, SignalStoreStart,
		KeyContentType.Field(contentType),
		KeyKind.Field(kind),
	)
}

// emitStoreComplete emits an event when store finishes.
func emitStoreComplete(ctx context.Context, contentType, kind string, size int, duration time.Duration, err error) {
	fields := egressFields(contentType, kind, size, duration)
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalStoreComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalStoreComplete, fields...)
	}
}

// emitSendStart emits an event when send begins.
func emitSendStart(ctx context.Context, contentType, kind string) {
	capitan.Emit(ctx, SignalSendStart,
		KeyContentType.Field(contentType),
		KeyKind.Field(kind),
	)
}

// emitSendComplete emits an event when send finishes.
func emitSendComplete(ctx context.Context, contentType, kind string, size int, duration time.Duration, masked, redacted int, err error) {
	fields := append(egressFields(contentType, kind, size, duration),
		KeyMaskedCount.Field(masked),
		KeyRedactedCount.Field(redacted),
	)
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalSendComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalSendComplete, fields...)
	}
}

// ingressFields leaves the depth out when the rebuild was unbounded.
func ingressFields(contentType, kind string, depth int, duration time.Duration) []capitan.Field {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyKind.Field(kind),
	}
	if depth != math.MaxInt {
		fields = append(fields, KeyDepth.Field(depth))
	}
	return append(fields, KeyDuration.Field(duration))
}

func egressFields(contentType, kind string, size int, duration time.Duration) []capitan.Field {
	return []capitan.Field{
		KeyContentType.Field(contentType),
		KeyKind.Field(kind),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
}
