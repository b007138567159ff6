package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
)

// Provider constants for LLM provider selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var ErrEmptyResponse = errors.New("llm returned no content")

// Config holds LLM client configuration.
type Config struct {
	Provider   string       // "openai" or "anthropic"
	APIKey     string       // Required: API key for the provider
	BaseURL    string       // Optional: custom API endpoint
	Model      string       // Model name (e.g., "gpt-4o-mini", "claude-sonnet-4-5-20250514")
	MaxTokens  int          // Default completion budget when a request does not set one
	HTTPClient *http.Client // Optional: used by tests to route calls to a local server
}

// Client sends one chat request and returns the model's text.
// SDK-level retries are disabled; callers own the retry policy.
type Client interface {
	Chat(ctx context.Context, req Request) (*Response, error)
	Model() string
}

// Message represents a conversation message.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

type Request struct {
	Messages    []Message
	SchemaName  string   // Optional: with Schema, asks for JSON matching the schema
	Schema      any      // JSON schema, see GenerateSchema
	MaxTokens   int      // 0 = client default
	Temperature *float64 // nil = model default, explicit 0 = deterministic
}

type Response struct {
	Content          string
	FinishReason     string // "stop", "length"
	PromptTokens     int
	CompletionTokens int
}

// New creates a Client for cfg.Provider. Defaults to OpenAI if no provider
// is specified.
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	switch cfg.Provider {
	case "", ProviderOpenAI:
		return newOpenAIClient(cfg), nil
	case ProviderAnthropic:
		return newAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

func GenerateSchema[T any]() any {
	var v T
	return GenerateSchemaFrom(v)
}

// GenerateSchemaFrom generates a JSON schema from an instance value.
// Useful when the type is not known at compile time.
func GenerateSchemaFrom(v any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v)
}

func Temp(t float64) *float64 {
	return &t
}

func IsRetryable(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		slog.DebugContext(ctx, "llm error not retryable: context cancelled or deadline exceeded")
		return false
	}

	status := 0
	var openaiErr *openai.Error
	var anthropicErr *anthropic.Error
	switch {
	case errors.As(err, &openaiErr):
		status = openaiErr.StatusCode
	case errors.As(err, &anthropicErr):
		status = anthropicErr.StatusCode
	case errors.Is(err, ErrEmptyResponse):
		return true
	default:
		// Network errors (no API response) are generally retryable
		slog.WarnContext(ctx, "llm network error, will retry", "error", err)
		return true
	}

	switch {
	case status == http.StatusTooManyRequests:
		slog.WarnContext(ctx, "llm rate limited, will retry", "status_code", status)
		return true
	case status >= 500:
		slog.WarnContext(ctx, "llm server error, will retry", "status_code", status)
		return true
	default:
		slog.ErrorContext(ctx, "llm client error, not retryable", "status_code", status, "error", err)
		return false
	}
}
