package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "samilabs.app/pulse"

// SpanContext is a started span plus the context that carries it.
type SpanContext struct {
	ctx  context.Context
	span trace.Span
}

// StartSpan starts a child span of ctx. The query, adapter, session and
// analysis mode found in the context log fields become span attributes, so
// traces and logs of one aggregation line up without repeating them.
//
//	sc := logger.StartSpan(ctx, "pulse.aggregate")
//	defer sc.End()
//	ctx = sc.Context()
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) *SpanContext {
	if attrs := fieldAttributes(GetLogFields(ctx)); len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return &SpanContext{ctx: ctx, span: span}
}

func (sc *SpanContext) Context() context.Context {
	return sc.ctx
}

func (sc *SpanContext) End() {
	if sc.span != nil {
		sc.span.End()
	}
}

func (sc *SpanContext) SetAttributes(kv ...attribute.KeyValue) {
	if sc.span != nil {
		sc.span.SetAttributes(kv...)
	}
}

// RecordError records err and marks the span failed.
func (sc *SpanContext) RecordError(err error) {
	if sc.span == nil || err == nil {
		return
	}
	sc.span.RecordError(err)
	sc.span.SetStatus(codes.Error, err.Error())
}

func (sc *SpanContext) Span() trace.Span {
	return sc.span
}

func fieldAttributes(f LogFields) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if f.Query != nil {
		attrs = append(attrs, attribute.String("pulse.query", *f.Query))
	}
	if f.Adapter != nil {
		attrs = append(attrs, attribute.String("pulse.adapter", *f.Adapter))
	}
	if f.SessionID != nil {
		attrs = append(attrs, attribute.Int64("pulse.session_id", *f.SessionID))
	}
	if f.AnalysisMode != nil {
		attrs = append(attrs, attribute.String("pulse.analysis_mode", *f.AnalysisMode))
	}
	return attrs
}
