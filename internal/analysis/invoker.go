package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"samilabs.app/pulse/common/llm"
	"samilabs.app/pulse/common/logger"
	"samilabs.app/pulse/internal/model"
)

const (
	defaultMaxAttempts = 3
	summaryTemperature = 0.7
	reportTemperature  = 0.3
	defaultMaxTokens   = 750
)

// LLMInvoker sends a conversation window to the analysis model.
type LLMInvoker struct {
	llm         llm.Client
	maxAttempts int
	backoffBase time.Duration
	maxTokens   int
}

type InvokerOption func(*LLMInvoker)

func WithMaxAttempts(n int) InvokerOption {
	return func(i *LLMInvoker) {
		if n > 0 {
			i.maxAttempts = n
		}
	}
}

func WithBackoffBase(d time.Duration) InvokerOption {
	return func(i *LLMInvoker) { i.backoffBase = d }
}

func WithMaxTokens(n int) InvokerOption {
	return func(i *LLMInvoker) {
		if n > 0 {
			i.maxTokens = n
		}
	}
}

func NewLLMInvoker(client llm.Client, opts ...InvokerOption) *LLMInvoker {
	i := &LLMInvoker{
		llm:         client,
		maxAttempts: defaultMaxAttempts,
		backoffBase: time.Second,
		maxTokens:   defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Analyze returns the model's answer for the last user turn in turns.
// Failures are returned as *Error.
func (i *LLMInvoker) Analyze(ctx context.Context, turns []model.Turn, mode model.AnalysisMode) (*model.AnalysisResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		AnalysisMode: logger.Ptr(string(mode)),
		Component:    "pulse.analysis.invoker",
	})

	req := llm.Request{
		Messages:    toMessages(turns),
		MaxTokens:   i.maxTokens,
		Temperature: llm.Temp(summaryTemperature),
	}
	if mode == model.AnalysisReport {
		req.SchemaName = reportSchemaName
		req.Schema = reportSchema
		req.Temperature = llm.Temp(reportTemperature)
	}

	var resp *llm.Response
	var err error
	start := time.Now()

	// Retry with exponential backoff (1s, 2s, 4s) on rate limits and server errors.
	for attempt := 0; attempt < i.maxAttempts; attempt++ {
		resp, err = i.llm.Chat(ctx, req)
		if err == nil {
			break
		}
		if !llm.IsRetryable(ctx, err) {
			return nil, NewFatalError(fmt.Errorf("analysis request: %w", err))
		}
		if attempt == i.maxAttempts-1 {
			break
		}
		slog.WarnContext(ctx, "analysis request retry",
			"attempt", attempt+1,
			"error", err)
		if sleepErr := sleep(ctx, time.Duration(1<<attempt)*i.backoffBase); sleepErr != nil {
			return nil, NewFatalError(fmt.Errorf("analysis request: %w", sleepErr))
		}
	}
	if err != nil {
		return nil, NewRetryableError(fmt.Errorf("analysis request after %d attempts: %w", i.maxAttempts, err))
	}

	result := &model.AnalysisResult{
		Mode:         mode,
		Raw:          resp.Content,
		PromptTokens: resp.PromptTokens,
		OutputTokens: resp.CompletionTokens,
	}
	if mode == model.AnalysisReport {
		report, perr := ParseReport(resp.Content)
		if perr != nil {
			slog.WarnContext(ctx, "analysis report is not structured, keeping raw text",
				"error", perr,
				"content", logger.Truncate(resp.Content, 200))
		}
		result.Report = report
	}

	slog.InfoContext(ctx, "analysis completed",
		"model", i.llm.Model(),
		"turns", len(turns),
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)

	return result, nil
}

func toMessages(turns []model.Turn) []llm.Message {
	msgs := make([]llm.Message, len(turns))
	for idx, t := range turns {
		msgs[idx] = llm.Message{Role: string(t.Role), Content: t.Content}
	}
	return msgs
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unavailable is the invoker used when no analysis LLM is configured.
// Every call fails, which the conversation records as a failed turn.
type Unavailable struct{}

func (Unavailable) Analyze(context.Context, []model.Turn, model.AnalysisMode) (*model.AnalysisResult, error) {
	return nil, NewFatalError(ErrNotConfigured)
}
