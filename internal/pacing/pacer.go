// Package pacing spaces out requests and row emission to stay under the
// sec-api.io rate limit. It is not a correctness mechanism.
package pacing

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Pacer enforces a minimum interval between consecutive events.
type Pacer struct {
	limiter *rate.Limiter
	delay   time.Duration
}

// New returns a Pacer that lets one event through every delay.
// A non-positive delay disables pacing.
func New(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(delay), 1), delay: delay}
}

// Wait blocks until the next event may proceed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "pacing: wait")
	}
	return nil
}

// Delay is the configured interval; zero when pacing is disabled.
func (p *Pacer) Delay() time.Duration {
	if p == nil {
		return 0
	}
	return p.delay
}
