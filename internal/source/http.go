package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"samilabs.app/pulse/internal/model"
)

const maxBodyBytes = 4 << 20

// requestFailure carries the outcome a failed request maps to.
type requestFailure struct {
	outcome model.FetchOutcome
	status  int // HTTP status when the upstream answered, zero otherwise
}

func (f *requestFailure) Error() string {
	return f.outcome.String()
}

// outcomeOf maps a request error onto a fetch outcome. Anything not already
// classified, including a context deadline, counts as the source being
// unavailable.
func outcomeOf(err error) model.FetchOutcome {
	var rf *requestFailure
	if errors.As(err, &rf) {
		return rf.outcome
	}
	return model.SourceUnavailable(err)
}

func isNotFound(err error) bool {
	var rf *requestFailure
	return errors.As(err, &rf) && rf.status == http.StatusNotFound
}

type fetcher struct {
	client    *http.Client
	userAgent string
	pacer     *Pacer
}

func newFetcher(cfg Config) *fetcher {
	return &fetcher{
		client:    cfg.HTTPClient,
		userAgent: cfg.UserAgent,
		pacer:     NewPacer(cfg.JitterMin, cfg.JitterMax),
	}
}

// get waits for the pacer, issues the request and returns the body of a 2xx
// response. Non-2xx responses come back as requestFailure.
func (f *fetcher) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	if err := f.pacer.Wait(ctx); err != nil {
		return nil, &requestFailure{outcome: model.SourceUnavailable(err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &requestFailure{outcome: model.SourceUnavailable(fmt.Errorf("build request: %w", err))}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &requestFailure{outcome: model.SourceUnavailable(err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &requestFailure{
			outcome: model.RateLimited(
				parseRetryAfter(resp.Header.Get("Retry-After")),
				fmt.Errorf("http %d", resp.StatusCode),
			),
			status: resp.StatusCode,
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &requestFailure{
			outcome: model.SourceUnavailable(fmt.Errorf("http %d", resp.StatusCode)),
			status:  resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &requestFailure{outcome: model.SourceUnavailable(fmt.Errorf("read body: %w", err))}
	}
	return body, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
