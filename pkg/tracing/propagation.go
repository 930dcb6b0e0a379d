// Package tracing bridges the active otel span and the outbox table.
// Outbox events are published after the originating request has
// finished, so the trace context is persisted with the row instead of
// carried on a live context.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const TraceparentHeader = "traceparent"

// Traceparent extracts the W3C traceparent value for the current span
// so it can be persisted alongside an outbox event. It returns the
// empty string when no propagator or span is configured.
func Traceparent(ctx context.Context) string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier[TraceparentHeader]
}
