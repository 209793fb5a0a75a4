package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span scope and name constants, named the way alex's react/tracing.go
// names its own (package-qualified dotted scope, one constant per span
// kind).
const (
	ScopeEngine = "agentlens.engine"

	SpanReadCycle     = "agentlens.reader.read"
	SpanProcessEvent  = "agentlens.aggregator.process_event"
	SpanPlanExtract   = "agentlens.plan.extract"
	SpanSnapshotWrite = "agentlens.snapshot.write"

	AttrSessionID  = "agentlens.session_id"
	AttrProviderID = "agentlens.provider_id"
	AttrStatus     = "agentlens.status"
)

// StartSpan starts a span under scope, tagging it with sessionID and
// providerID when non-empty, mirroring the attribute-stamping style of
// alex's startReactSpan (there keyed off an ambient request-id context;
// here keyed off the two identifiers every session cell already carries
// explicitly, so no request-scoped context helper is needed).
func StartSpan(ctx context.Context, scope, spanName, sessionID, providerID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	spanAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	if sessionID != "" {
		spanAttrs = append(spanAttrs, attribute.String(AttrSessionID, sessionID))
	}
	if providerID != "" {
		spanAttrs = append(spanAttrs, attribute.String(AttrProviderID, providerID))
	}
	spanAttrs = append(spanAttrs, attrs...)
	return Tracer(scope).Start(ctx, spanName, trace.WithAttributes(spanAttrs...))
}

// MarkSpanResult sets span status and the agentlens.status attribute
// from err, recording the error on the span when non-nil.
func MarkSpanResult(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrStatus, "error"))
		return
	}
	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.String(AttrStatus, "success"))
}
