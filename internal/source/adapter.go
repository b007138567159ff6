package source

import (
	"context"
	"net/http"
	"time"

	"samilabs.app/pulse/internal/mention"
	"samilabs.app/pulse/internal/model"
)

// Adapter fetches raw items about an entity from one external origin.
// Fetch never returns a Go error: every failure is reported through the
// outcome so the orchestrator can decide whether to retry or move on.
type Adapter interface {
	Name() string
	Schema() mention.Schema
	Fetch(ctx context.Context, query string, limit int) Result
}

type Result struct {
	Items   []model.RawItem
	Outcome model.FetchOutcome
}

func failed(outcome model.FetchOutcome) Result {
	return Result{Outcome: outcome}
}

func succeeded(items []model.RawItem) Result {
	return Result{Items: items, Outcome: model.Ok(len(items))}
}

const (
	DefaultRedditURL     = "https://www.reddit.com"
	DefaultNewsURL       = "https://news.google.com"
	DefaultNitterURL     = "https://nitter.net"
	DefaultTrustpilotURL = "https://www.trustpilot.com"
	DefaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Config holds endpoints and request pacing shared by all adapters.
type Config struct {
	RedditURL      string
	NewsURL        string
	NitterURL      string
	TrustpilotURL  string
	UserAgent      string
	JitterMin      time.Duration
	JitterMax      time.Duration
	MaxConcurrency int
	HTTPClient     *http.Client
}

func (c Config) withDefaults() Config {
	if c.RedditURL == "" {
		c.RedditURL = DefaultRedditURL
	}
	if c.NewsURL == "" {
		c.NewsURL = DefaultNewsURL
	}
	if c.NitterURL == "" {
		c.NitterURL = DefaultNitterURL
	}
	if c.TrustpilotURL == "" {
		c.TrustpilotURL = DefaultTrustpilotURL
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxConcurrency < 1 || c.MaxConcurrency > 3 {
		c.MaxConcurrency = 3
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	return c
}
