package service

import (
	"fmt"
	"net/http"

	"samilabs.app/pulse/common/llm"
	"samilabs.app/pulse/core/config"
	"samilabs.app/pulse/internal/analysis"
	"samilabs.app/pulse/internal/conversation"
	"samilabs.app/pulse/internal/pipeline"
	"samilabs.app/pulse/internal/source"
)

type ServicesConfig struct {
	Aggregator Aggregator
	Invoker    conversation.Invoker
	WindowSize int
}

type Services struct {
	mentions Aggregator
	analysis AnalysisService
}

func NewServices(cfg ServicesConfig) *Services {
	return &Services{
		mentions: cfg.Aggregator,
		analysis: NewAnalysisService(conversation.NewManager(cfg.WindowSize), cfg.Invoker, cfg.Aggregator),
	}
}

func (s *Services) Mentions() MentionService {
	return NewMentionService(s.mentions)
}

// Analysis returns the shared analysis service. Sessions live inside it, so
// every caller must see the same instance.
func (s *Services) Analysis() AnalysisService {
	return s.analysis
}

// NewAggregator builds the fallback pipeline described by cfg. httpClient
// may be nil.
func NewAggregator(cfg config.Config, httpClient *http.Client) (*pipeline.Orchestrator, error) {
	agg := cfg.Aggregation
	adapters, err := source.Build(agg.AdapterOrder, source.Config{
		RedditURL:      cfg.Sources.RedditURL,
		NewsURL:        cfg.Sources.NewsURL,
		NitterURL:      cfg.Sources.NitterURL,
		TrustpilotURL:  cfg.Sources.TrustpilotURL,
		UserAgent:      cfg.Sources.UserAgent,
		JitterMin:      agg.JitterMin,
		JitterMax:      agg.JitterMax,
		MaxConcurrency: agg.MaxConcurrency,
		HTTPClient:     httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("building adapters: %w", err)
	}

	retry := pipeline.DefaultRetryPolicy()
	retry.MaxRetries = agg.MaxRetries
	retry.InitialInterval = agg.RetryInitialInterval

	return pipeline.NewOrchestrator(adapters, pipeline.Config{
		MinYield:          agg.MinYield,
		QualityThreshold:  agg.QualityThreshold,
		PerAdapterTimeout: agg.PerAdapterTimeout,
		OverallDeadline:   agg.OverallDeadline,
		Retry:             retry,
		JitterMin:         agg.JitterMin,
		JitterMax:         agg.JitterMax,
	}), nil
}

// NewInvoker returns the analysis invoker for cfg, or an invoker that
// always fails when no provider is configured.
func NewInvoker(cfg config.LLMConfig) (conversation.Invoker, error) {
	if !cfg.Enabled() {
		return analysis.Unavailable{}, nil
	}
	client, err := llm.New(llm.Config{
		Provider:  cfg.Provider,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("creating analysis llm client: %w", err)
	}
	return analysis.NewLLMInvoker(client, analysis.WithMaxTokens(cfg.MaxTokens)), nil
}
