package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"samilabs.app/pulse/internal/source"
)

// AggregationConfig holds the tunables of the fallback pipeline and the
// conversation window. YAML keys match the option names used in docs.
type AggregationConfig struct {
	MinYield             int           `yaml:"minYield"`
	QualityThreshold     int           `yaml:"qualityThreshold"`
	WindowSize           int           `yaml:"windowSize"`
	PerAdapterTimeout    time.Duration `yaml:"perAdapterTimeout"`
	OverallDeadline      time.Duration `yaml:"overallDeadline"`
	AdapterOrder         []string      `yaml:"adapterOrder"`
	MaxRetries           int           `yaml:"maxRetries"`
	RetryInitialInterval time.Duration `yaml:"retryInitialInterval"`
	JitterMin            time.Duration `yaml:"jitterMin"`
	JitterMax            time.Duration `yaml:"jitterMax"`
	MaxConcurrency       int           `yaml:"maxConcurrency"`
}

func DefaultAggregation() AggregationConfig {
	return AggregationConfig{
		MinYield:             5,
		QualityThreshold:     30,
		WindowSize:           6,
		PerAdapterTimeout:    20 * time.Second,
		AdapterOrder:         slices.Clone(source.DefaultOrder),
		MaxRetries:           1,
		RetryInitialInterval: time.Second,
		JitterMin:            500 * time.Millisecond,
		JitterMax:            3 * time.Second,
		MaxConcurrency:       3,
	}
}

func aggregationFromEnv() AggregationConfig {
	d := DefaultAggregation()
	return AggregationConfig{
		MinYield:             getEnvInt("PULSE_MIN_YIELD", d.MinYield),
		QualityThreshold:     getEnvInt("PULSE_QUALITY_THRESHOLD", d.QualityThreshold),
		WindowSize:           getEnvInt("PULSE_WINDOW_SIZE", d.WindowSize),
		PerAdapterTimeout:    getEnvDuration("PULSE_ADAPTER_TIMEOUT", d.PerAdapterTimeout),
		OverallDeadline:      getEnvDuration("PULSE_OVERALL_DEADLINE", d.OverallDeadline),
		AdapterOrder:         getEnvList("PULSE_ADAPTER_ORDER", d.AdapterOrder),
		MaxRetries:           getEnvInt("PULSE_MAX_RETRIES", d.MaxRetries),
		RetryInitialInterval: getEnvDuration("PULSE_RETRY_INITIAL_INTERVAL", d.RetryInitialInterval),
		JitterMin:            getEnvDuration("PULSE_JITTER_MIN", d.JitterMin),
		JitterMax:            getEnvDuration("PULSE_JITTER_MAX", d.JitterMax),
		MaxConcurrency:       getEnvInt("PULSE_MAX_CONCURRENCY", d.MaxConcurrency),
	}
}

// LoadFile overlays the options present in a YAML file onto c.
// Keys missing from the file keep their current values.
func (c *AggregationConfig) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading aggregation file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing aggregation file %s: %w", path, err)
	}
	return nil
}

func (c AggregationConfig) Validate() error {
	var errs []error
	if c.MinYield < 1 {
		errs = append(errs, fmt.Errorf("minYield must be >= 1, got %d", c.MinYield))
	}
	if c.QualityThreshold < 1 {
		errs = append(errs, fmt.Errorf("qualityThreshold must be >= 1, got %d", c.QualityThreshold))
	}
	if c.WindowSize < 2 {
		errs = append(errs, fmt.Errorf("windowSize must be >= 2, got %d", c.WindowSize))
	}
	if c.PerAdapterTimeout <= 0 {
		errs = append(errs, fmt.Errorf("perAdapterTimeout must be positive"))
	}
	if c.OverallDeadline < 0 {
		errs = append(errs, fmt.Errorf("overallDeadline must not be negative"))
	}
	if len(c.AdapterOrder) == 0 {
		errs = append(errs, errors.New("adapterOrder must name at least one adapter"))
	}
	for _, name := range c.AdapterOrder {
		if !source.Known(name) {
			errs = append(errs, fmt.Errorf("unknown adapter %q in adapterOrder", name))
		}
	}
	if c.MaxRetries < 0 || c.MaxRetries > 2 {
		errs = append(errs, fmt.Errorf("maxRetries must be between 0 and 2, got %d", c.MaxRetries))
	}
	if c.JitterMin < 0 || c.JitterMin > c.JitterMax {
		errs = append(errs, fmt.Errorf("jitter range [%s, %s] is invalid", c.JitterMin, c.JitterMax))
	}
	if c.MaxConcurrency < 1 || c.MaxConcurrency > 3 {
		errs = append(errs, fmt.Errorf("maxConcurrency must be between 1 and 3, got %d", c.MaxConcurrency))
	}
	return errors.Join(errs...)
}
