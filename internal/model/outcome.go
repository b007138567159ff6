package model

import (
	"fmt"
	"time"
)

type OutcomeKind string

const (
	OutcomeOK                OutcomeKind = "ok"
	OutcomeSourceUnavailable OutcomeKind = "source_unavailable"
	OutcomeRateLimited       OutcomeKind = "rate_limited"
	OutcomeParseError        OutcomeKind = "parse_error"
	OutcomeEmpty             OutcomeKind = "empty"
)

// FetchOutcome is how an adapter reports the result of one fetch.
// Adapters never return Go errors to the orchestrator; failures travel here.
type FetchOutcome struct {
	Kind       OutcomeKind
	Count      int
	Err        error
	RetryAfter time.Duration // set by RateLimited when the upstream sent Retry-After
}

func Ok(n int) FetchOutcome {
	if n == 0 {
		return Empty()
	}
	return FetchOutcome{Kind: OutcomeOK, Count: n}
}

func Empty() FetchOutcome {
	return FetchOutcome{Kind: OutcomeEmpty}
}

func SourceUnavailable(err error) FetchOutcome {
	return FetchOutcome{Kind: OutcomeSourceUnavailable, Err: err}
}

func RateLimited(retryAfter time.Duration, err error) FetchOutcome {
	return FetchOutcome{Kind: OutcomeRateLimited, Err: err, RetryAfter: retryAfter}
}

func ParseError(err error) FetchOutcome {
	return FetchOutcome{Kind: OutcomeParseError, Err: err}
}

// Transient reports whether retrying the same call may succeed.
func (o FetchOutcome) Transient() bool {
	return o.Kind == OutcomeSourceUnavailable || o.Kind == OutcomeRateLimited
}

func (o FetchOutcome) String() string {
	switch {
	case o.Kind == OutcomeOK:
		return fmt.Sprintf("ok(%d)", o.Count)
	case o.Err != nil:
		return fmt.Sprintf("%s: %v", o.Kind, o.Err)
	default:
		return string(o.Kind)
	}
}
