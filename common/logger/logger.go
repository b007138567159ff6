package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"samilabs.app/pulse/core/config"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
)

func Setup(cfg config.Config) {
	SetupWithWriter(cfg, os.Stdout, nil)
}

// SetupWithWriter installs the default logger writing to w. A nil level
// selects debug in development and info elsewhere.
func SetupWithWriter(cfg config.Config, w io.Writer, level slog.Leveler) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
	}
	if level != nil {
		opts.Level = level
	}

	if cfg.IsProduction() && cfg.OTel.Enabled() {
		handler = otelslog.NewHandler(
			cfg.OTel.ServiceName,
			otelslog.WithLoggerProvider(global.GetLoggerProvider()),
		)
	} else if cfg.IsProduction() {
		handler = NewTraceHandler(slog.NewJSONHandler(w, opts))
	} else {
		handler = NewTraceHandler(slog.NewTextHandler(w, opts))
	}

	slog.SetDefault(slog.New(handler))
}

type TraceHandler struct {
	slog.Handler
}

func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	// Add OTel trace/span IDs from context
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	// Add structured fields from context (automatic enrichment)
	fields := GetLogFields(ctx)
	if fields.Query != nil {
		r.AddAttrs(slog.String("query", *fields.Query))
	}
	if fields.Adapter != nil {
		r.AddAttrs(slog.String("adapter", *fields.Adapter))
	}
	if fields.Source != nil {
		r.AddAttrs(slog.String("source", *fields.Source))
	}
	if fields.Attempt != nil {
		r.AddAttrs(slog.Int("attempt", *fields.Attempt))
	}
	if fields.SessionID != nil {
		r.AddAttrs(slog.Int64("session_id", *fields.SessionID))
	}
	if fields.AnalysisMode != nil {
		r.AddAttrs(slog.String("analysis_mode", *fields.AnalysisMode))
	}
	if fields.Component != "" {
		r.AddAttrs(slog.String("component", fields.Component))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}
