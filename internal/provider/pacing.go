package provider

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/f0rbit/media-timeline/internal/platform"
)

// Pacer smooths a provider's page-by-page upstream calls within a single
// fetch (e.g. one commits/pulls request per repo), distinct from C3's
// per-account circuit breaker which gates whether a fetch happens at all.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer builds a Pacer at the platform's configured steady-state rate.
func NewPacer(t platform.Tag) *Pacer {
	r, burst := platform.PacingLimit(t)
	return &Pacer{limiter: rate.NewLimiter(r, burst)}
}

// Wait blocks until the next call is allowed to go out, or ctx is canceled.
// A nil Pacer never blocks, so tests can skip constructing one.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
