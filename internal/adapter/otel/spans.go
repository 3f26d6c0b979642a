package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "cardsmarket"

// StartStoreSpan starts a span for a store operation, e.g. ("cards", "fetch_all").
func StartStoreSpan(ctx context.Context, store, op string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, store+"."+op,
		trace.WithAttributes(
			attribute.String("store.name", store),
			attribute.String("store.op", op),
		),
	)
}

// StartSweepSpan starts a span for an expired-entry sweep of the cache.
func StartSweepSpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "cache.sweep")
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
