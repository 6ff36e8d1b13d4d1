package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "atelier"

// StartAggregationSpan starts a span for one bottom-up completion walk.
func StartAggregationSpan(ctx context.Context, setID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "aggregation",
		trace.WithAttributes(
			attribute.String("set.id", setID),
		),
	)
}

// StartCloneSpan starts a span for a project duplication or
// create-from-template run.
func StartCloneSpan(ctx context.Context, sourceID, batchID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "clone",
		trace.WithAttributes(
			attribute.String("clone.source_id", sourceID),
			attribute.String("clone.batch_id", batchID),
		),
	)
}

// StartConversionSpan starts a span for a lead conversion.
func StartConversionSpan(ctx context.Context, leadID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "lead.convert",
		trace.WithAttributes(
			attribute.String("lead.id", leadID),
		),
	)
}

// StartReorderSpan starts a span for a bulk reorder.
func StartReorderSpan(ctx context.Context, scope string, count int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "reorder",
		trace.WithAttributes(
			attribute.String("reorder.scope", scope),
			attribute.Int("reorder.count", count),
		),
	)
}
