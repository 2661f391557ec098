// Package telemetry wraps codec calls in OpenTelemetry spans, using the
// same tracer-start/attribute/status shape an HTTP tracing middleware
// would, attached to a codec call instead of an HTTP round trip.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/kenneth/uid2-client-go"

// StartOperation starts a span named "uid2." + operation, tagged with
// siteID when known (0 means not yet resolved). The caller must call
// EndOperation with the resulting status.
func StartOperation(ctx context.Context, operation string, siteID int32) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "uid2."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("uid2.operation", operation)),
	)
	if siteID != 0 {
		span.SetAttributes(attribute.Int64("uid2.site_id", int64(siteID)))
	}
	return ctx, span
}

// EndOperation records the final status on span and closes it. status is a
// DecryptionStatus's String(); "Success" maps to codes.Ok, everything else
// to codes.Error.
func EndOperation(span trace.Span, status string) {
	span.SetAttributes(attribute.String("uid2.status", status))
	if status == "Success" {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, status)
	}
	span.End()
}
