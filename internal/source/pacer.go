package source

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Pacer spaces successive calls by a random delay drawn uniformly from
// [min, max]. The first Wait returns immediately. Concurrent callers are
// handed consecutive slots, so the spacing holds under a worker pool too.
type Pacer struct {
	min, max time.Duration

	mu   sync.Mutex
	next time.Time
}

func NewPacer(min, max time.Duration) *Pacer {
	if max < min {
		max = min
	}
	return &Pacer{min: min, max: max}
}

func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	now := time.Now()
	slot := now
	if p.next.After(now) {
		slot = p.next
	}
	p.next = slot.Add(p.jitter())
	p.mu.Unlock()

	return sleep(ctx, slot.Sub(now))
}

func (p *Pacer) jitter() time.Duration {
	if p.max <= p.min {
		return p.min
	}
	return p.min + rand.N(p.max-p.min+1)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
