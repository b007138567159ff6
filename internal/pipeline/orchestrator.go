package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"samilabs.app/pulse/common/logger"
	"samilabs.app/pulse/internal/mention"
	"samilabs.app/pulse/internal/model"
	"samilabs.app/pulse/internal/source"
)

const (
	DefaultMinYield          = 5
	DefaultPerAdapterTimeout = 20 * time.Second
)

type Config struct {
	MinYield          int
	QualityThreshold  int
	PerAdapterTimeout time.Duration
	OverallDeadline   time.Duration // zero means no deadline
	Retry             RetryPolicy
	JitterMin         time.Duration
	JitterMax         time.Duration
}

// Orchestrator drives an ordered chain of adapters until the minimum yield
// is reached or the chain is exhausted. It holds no per-query state, so one
// instance can serve concurrent queries.
type Orchestrator struct {
	adapters []source.Adapter
	cfg      Config
	filter   mention.QualityFilter
}

func NewOrchestrator(adapters []source.Adapter, cfg Config) *Orchestrator {
	if cfg.MinYield < 1 {
		cfg.MinYield = DefaultMinYield
	}
	if cfg.PerAdapterTimeout <= 0 {
		cfg.PerAdapterTimeout = DefaultPerAdapterTimeout
	}
	return &Orchestrator{
		adapters: adapters,
		cfg:      cfg,
		filter:   mention.NewQualityFilter(cfg.QualityThreshold),
	}
}

// run is the mutable state of one Aggregate call.
type run struct {
	query     string
	limit     int
	target    int
	collected []model.Mention
	attempts  []model.Attempt
	dropped   model.DropStats
	partial   bool
}

// Aggregate collects up to limit mentions of query. Adapter failures are
// recorded in the result and never returned. The only errors are invalid
// input, cancellation of ctx by the caller, and NoDataFoundError.
func (o *Orchestrator) Aggregate(ctx context.Context, query string, limit int) (*model.AggregationResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Query:     logger.Ptr(query),
		Component: "pulse.pipeline.orchestrator",
	})
	sc := logger.StartSpan(ctx, "pulse.aggregate")
	defer sc.End()
	ctx = sc.Context()

	runCtx := ctx
	if o.cfg.OverallDeadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.cfg.OverallDeadline)
		defer cancel()
	}

	started := time.Now()
	r := &run{query: query, limit: limit, target: min(o.cfg.MinYield, limit)}
	pacer := source.NewPacer(o.cfg.JitterMin, o.cfg.JitterMax)

	for _, a := range o.adapters {
		if len(r.collected) >= r.target {
			break
		}
		if runCtx.Err() != nil {
			r.partial = true
			break
		}
		if err := pacer.Wait(runCtx); err != nil {
			r.partial = true
			break
		}
		o.tryAdapter(runCtx, r, a)
	}

	if err := ctx.Err(); err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("aggregate %q: %w", query, err)
	}
	if runCtx.Err() != nil && len(r.collected) < r.target {
		r.partial = true
	}

	sc.SetAttributes(
		attribute.Int("pulse.mentions", len(r.collected)),
		attribute.Int("pulse.adapters_tried", len(r.attempts)),
		attribute.Bool("pulse.partial", r.partial),
	)

	if len(r.collected) == 0 {
		err := &NoDataFoundError{Query: query, Attempts: r.attempts, Partial: r.partial}
		slog.WarnContext(ctx, "no mentions found", "sources_tried", err.SourcesTried())
		return nil, err
	}

	result := &model.AggregationResult{
		Query:      query,
		Mentions:   r.collected,
		Counts:     countBySource(r.collected),
		Attempts:   r.attempts,
		Dropped:    r.dropped,
		Partial:    r.partial,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}

	slog.InfoContext(ctx, "aggregation finished",
		"mentions", len(result.Mentions),
		"adapters_tried", len(result.Attempts),
		"partial", result.Partial,
		"duration_ms", result.FinishedAt.Sub(started).Milliseconds())

	return result, nil
}

// tryAdapter runs one adapter with the remaining budget and folds its
// output into the cumulative collection.
func (o *Orchestrator) tryAdapter(ctx context.Context, r *run, a source.Adapter) {
	remaining := r.limit - len(r.collected)
	if remaining <= 0 {
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{Adapter: logger.Ptr(a.Name())})
	sc := logger.StartSpan(ctx, "pulse.adapter.fetch")
	defer sc.End()
	ctx = sc.Context()

	schema := a.Schema()
	started := time.Now()
	res, tries := o.cfg.Retry.Run(ctx, func(ctx context.Context) source.Result {
		return o.call(ctx, a, r.query, remaining)
	})

	attempt := model.Attempt{
		Adapter:   a.Name(),
		Source:    schema.Source,
		Outcome:   res.Outcome.Kind,
		Tries:     tries,
		Requested: remaining,
		Raw:       len(res.Items),
		Duration:  time.Since(started),
	}
	if res.Outcome.Err != nil {
		attempt.Error = res.Outcome.Err.Error()
		sc.RecordError(res.Outcome.Err)
	}

	fresh, unresolved := mention.NormalizeAll(res.Items, schema, time.Now())
	fresh, lowQuality := o.filter.Apply(fresh)
	fresh = mention.WithKeys(fresh)

	before := len(r.collected)
	merged := mention.Dedupe(append(r.collected, fresh...))
	duplicates := before + len(fresh) - len(merged)
	overBudget := 0
	if len(merged) > r.limit {
		overBudget = len(merged) - r.limit
		merged = merged[:r.limit]
	}

	r.collected = merged
	attempt.Accepted = len(merged) - before
	r.attempts = append(r.attempts, attempt)
	r.dropped.Unresolved += unresolved
	r.dropped.LowQuality += lowQuality
	r.dropped.Duplicate += duplicates
	r.dropped.OverBudget += overBudget

	sc.SetAttributes(
		attribute.String("pulse.outcome", string(attempt.Outcome)),
		attribute.Int("pulse.accepted", attempt.Accepted),
	)

	level := slog.LevelInfo
	if res.Outcome.Kind != model.OutcomeOK {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "adapter finished",
		"outcome", res.Outcome.String(),
		"tries", tries,
		"requested", remaining,
		"raw", attempt.Raw,
		"accepted", attempt.Accepted,
		"unresolved", unresolved,
		"low_quality", lowQuality,
		"duplicates", duplicates,
		"collected", len(r.collected))
}

// call invokes the adapter under the per-adapter timeout. An adapter that
// overruns its timeout or panics is reported as unavailable.
func (o *Orchestrator) call(ctx context.Context, a source.Adapter, query string, limit int) source.Result {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.PerAdapterTimeout)
	defer cancel()

	done := make(chan source.Result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				slog.ErrorContext(ctx, "adapter panicked", "panic", p)
				done <- source.Result{Outcome: model.SourceUnavailable(fmt.Errorf("adapter panicked: %v", p))}
			}
		}()
		done <- a.Fetch(callCtx, query, limit)
	}()

	select {
	case res := <-done:
		return res
	case <-callCtx.Done():
		err := callCtx.Err()
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("adapter timed out after %s", o.cfg.PerAdapterTimeout)
		}
		return source.Result{Outcome: model.SourceUnavailable(err)}
	}
}

func countBySource(mentions []model.Mention) map[model.Source]int {
	counts := make(map[model.Source]int)
	for _, m := range mentions {
		counts[m.Source]++
	}
	return counts
}
