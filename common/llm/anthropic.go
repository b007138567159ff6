package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-5-20250514"
	defaultAnthropicMaxTokens = 4096
	truncatedHistoryNote      = "(earlier conversation omitted)"
)

type anthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

func newAnthropicClient(cfg Config) *anthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	return &anthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *anthropicClient) Chat(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	system, messages := c.convertMessages(req.Messages)

	// Anthropic has no response_format; the schema travels in the system prompt.
	if req.Schema != nil {
		schema, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}
		system = append(system, anthropic.TextBlockParam{
			Type: "text",
			Text: "Respond with a single JSON object and nothing else. It must match this JSON schema:\n" + string(schema),
		})
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}

	slog.DebugContext(ctx, "llm chat completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason)

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(sb.String())
	if req.Schema != nil {
		content = stripCodeFence(content)
	}
	if content == "" {
		return nil, ErrEmptyResponse
	}

	return &Response{
		Content:          content,
		FinishReason:     c.mapStopReason(resp.StopReason),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

func (c *anthropicClient) Model() string {
	return c.model
}

// convertMessages extracts system content and converts messages to Anthropic format.
// Anthropic requires system messages to be passed separately and the first
// message to come from the user; a window that starts on an assistant turn
// gets a placeholder user message in front.
func (c *anthropicClient) convertMessages(msgs []Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	messages := make([]anthropic.MessageParam, 0, len(msgs)+1)

	for _, msg := range msgs {
		switch msg.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Type: "text", Text: msg.Content})
		case "assistant":
			if len(messages) == 0 {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(truncatedHistoryNote)))
			}
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return system, messages
}

func (c *anthropicClient) mapStopReason(reason anthropic.StopReason) string {
	switch reason {
	case anthropic.StopReasonMaxTokens:
		return "length"
	default:
		return "stop"
	}
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
