package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel        OTelConfig
	AnalysisLLM LLMConfig
	Aggregation AggregationConfig
	Sources     SourcesConfig
	Env         string
	Port        string
	NodeID      int64
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
	SampleRatio    float64
}

type LLMConfig struct {
	Provider  string // "openai" or "anthropic"
	APIKey    string
	BaseURL   string // Optional: for custom endpoints
	Model     string
	MaxTokens int
}

// SourcesConfig points adapters at their upstreams. Overridable so a staging
// deployment can use a private Nitter instance or a caching proxy.
type SourcesConfig struct {
	RedditURL     string
	NewsURL       string
	NitterURL     string
	TrustpilotURL string
	UserAgent     string
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeCLI    ServiceType = "cli"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the API server
//   - .env.cli for the pulse command
//
// Falls back to .env if service-specific file doesn't exist. When
// PULSE_AGGREGATION_FILE is set, the YAML file it names overrides the
// aggregation options read from the environment.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("PULSE_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:    getEnv("PULSE_ENV", "development"),
		Port:   getEnv("PORT", "8080"),
		NodeID: int64(getEnvInt("PULSE_NODE_ID", 1)),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "pulse"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			SampleRatio:    getEnvFloat("OTEL_TRACES_SAMPLER_RATIO", 1),
		},
		AnalysisLLM: LLMConfig{
			Provider:  getEnv("ANALYSIS_LLM_PROVIDER", "openai"),
			APIKey:    getEnv("ANALYSIS_LLM_API_KEY", ""),
			BaseURL:   getEnv("ANALYSIS_LLM_BASE_URL", ""),
			Model:     getEnv("ANALYSIS_LLM_MODEL", "gpt-4o-mini"),
			MaxTokens: getEnvInt("ANALYSIS_LLM_MAX_TOKENS", 750),
		},
		Sources: SourcesConfig{
			RedditURL:     getEnv("SOURCE_REDDIT_URL", ""),
			NewsURL:       getEnv("SOURCE_NEWS_URL", ""),
			NitterURL:     getEnv("SOURCE_NITTER_URL", ""),
			TrustpilotURL: getEnv("SOURCE_TRUSTPILOT_URL", ""),
			UserAgent:     getEnv("SOURCE_USER_AGENT", ""),
		},
		Aggregation: aggregationFromEnv(),
	}

	if path := getEnv("PULSE_AGGREGATION_FILE", ""); path != "" {
		if err := cfg.Aggregation.LoadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Aggregation.Validate(); err != nil {
		return Config{}, fmt.Errorf("aggregation config: %w", err)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && (c.Provider == "openai" || c.Provider == "anthropic")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
