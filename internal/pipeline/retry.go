package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"

	"samilabs.app/pulse/common/logger"
	"samilabs.app/pulse/internal/source"
)

const maxRetries = 2

// RetryPolicy is the single backoff policy applied around every adapter call.
// Only transient outcomes (unavailable, rate limited) are retried.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 1, InitialInterval: time.Second, MaxInterval: 10 * time.Second}
}

func (p RetryPolicy) normalized() RetryPolicy {
	p.MaxRetries = min(max(p.MaxRetries, 0), maxRetries)
	if p.InitialInterval <= 0 {
		p.InitialInterval = time.Second
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = p.InitialInterval * 10
	}
	return p
}

// Run invokes call until it returns a non-transient outcome or the retry
// budget is spent, and returns the last result with the number of tries.
// The item limit passed by call is never changed between tries.
func (p RetryPolicy) Run(ctx context.Context, call func(context.Context) source.Result) (source.Result, int) {
	p = p.normalized()
	tries := 0

	op := func() (source.Result, error) {
		tries++
		res := call(ctx)
		if !res.Outcome.Transient() {
			return res, nil
		}

		err := res.Outcome.Err
		if err == nil {
			err = errors.New(string(res.Outcome.Kind))
		}
		if wait := res.Outcome.RetryAfter; wait > 0 {
			if wait > p.MaxInterval {
				return res, backoff.Permanent(err)
			}
			return res, backoff.RetryAfter(int(math.Ceil(wait.Seconds())))
		}
		return res, err
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialInterval,
		RandomizationFactor: 0.5,
		Multiplier:          2,
		MaxInterval:         p.MaxInterval,
	}

	res, _ := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.MaxRetries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.WarnContext(logger.WithLogFields(ctx, logger.LogFields{Attempt: logger.Ptr(tries)}),
				"adapter call failed, retrying",
				"error", err,
				"retry_in", next)
		}),
	)
	return res, tries
}
