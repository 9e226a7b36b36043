package web

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/udirag/internal/core/ports/driven"
)

// Ensure Pacer implements the interface.
var _ driven.Pacer = (*Pacer)(nil)

// Pacer spaces requests by a fixed interval and honours server-requested
// pauses such as Retry-After.
type Pacer struct {
	bucket *rate.Limiter

	mu         sync.Mutex
	pauseUntil time.Time
}

// NewPacer creates a pacer allowing one request per interval.
// A zero or negative interval disables spacing.
func NewPacer(interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{bucket: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next request may be sent.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.bucket.Wait(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	until := p.pauseUntil
	p.mu.Unlock()

	if wait := time.Until(until); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Pause holds every later Wait for at least d.
func (p *Pacer) Pause(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if until := time.Now().Add(d); until.After(p.pauseUntil) {
		p.pauseUntil = until
	}
}
