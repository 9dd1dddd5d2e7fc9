package otelx

import (
	"context"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Carried is a W3C trace context captured from one request so that work
// finishing later, such as publishing an outbox row, joins the same trace.
type Carried struct {
	Traceparent string
	Tracestate  string
}

// w3c is used directly rather than the global propagator so rows written by
// one build stay readable when the process-wide propagator set changes.
var w3c = propagation.TraceContext{}

// Capture returns the trace context of the span active in ctx. It is zero
// when ctx carries no valid span.
func Capture(ctx context.Context) Carried {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return Carried{}
	}
	carrier := propagation.MapCarrier{}
	w3c.Inject(ctx, carrier)
	return Carried{
		Traceparent: carrier.Get("traceparent"),
		Tracestate:  carrier.Get("tracestate"),
	}
}

// Restore returns ctx with the carried span as its remote parent. A zero or
// malformed value leaves ctx unchanged.
func (c Carried) Restore(ctx context.Context) context.Context {
	if c.Traceparent == "" {
		return ctx
	}
	restored := w3c.Extract(ctx, propagation.MapCarrier{
		"traceparent": c.Traceparent,
		"tracestate":  c.Tracestate,
	})
	if !trace.SpanContextFromContext(restored).IsValid() {
		return ctx
	}
	return restored
}
