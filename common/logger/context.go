package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Enrich the context once at the top of an operation and every log statement
// below it carries the query, adapter or session it belongs to.
type LogFields struct {
	Query        *string // Entity being aggregated
	Adapter      *string // Source adapter name (e.g., "forum", "news")
	Source       *string // Mention source kind
	Attempt      *int    // Try number within one adapter call
	SessionID    *int64  // Conversation session ID
	AnalysisMode *string // "summary" or "report"
	Component    string  // Component name (e.g., "pulse.pipeline.orchestrator")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.Query != nil {
		result.Query = new.Query
	}
	if new.Adapter != nil {
		result.Adapter = new.Adapter
	}
	if new.Source != nil {
		result.Source = new.Source
	}
	if new.Attempt != nil {
		result.Attempt = new.Attempt
	}
	if new.SessionID != nil {
		result.SessionID = new.SessionID
	}
	if new.AnalysisMode != nil {
		result.AnalysisMode = new.AnalysisMode
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{Query: logger.Ptr(q)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate shortens s to at most maxLen runes, appending "..." if truncated.
// Useful for logging mention content or model output.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
