package batch

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// emaAlpha weights the newest run duration in the moving average.
	emaAlpha = 0.3
	// backoffFactor bounds how far the rate can drop after one slow run.
	backoffFactor = 0.5
	// recoveryFactor is the per-run increase once runs are fast again.
	recoveryFactor = 1.1
	// floorDivisor sets the slowest pace relative to the configured rate.
	floorDivisor = 10

	// DefaultTargetDuration is the run duration the pacer considers healthy.
	DefaultTargetDuration = 20 * time.Second
)

// Pacer spaces page loads in a batch. It starts at the configured rate and
// slows down while runs take longer than the target, which usually means the
// site is struggling; it never goes faster than the configured rate.
type Pacer struct {
	limiter *rate.Limiter
	target  time.Duration

	mu      sync.Mutex
	ceiling float64
	current float64
	ema     time.Duration
}

// NewPacer creates a pacer allowing perSecond page loads per second.
// A non-positive rate disables pacing.
func NewPacer(perSecond float64, target time.Duration) *Pacer {
	if target <= 0 {
		target = DefaultTargetDuration
	}
	if perSecond <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1), target: target, ema: target}
	}
	return &Pacer{
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		target:  target,
		ceiling: perSecond,
		current: perSecond,
		ema:     target,
	}
}

// Wait blocks until the next page load is allowed.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Observe records how long a run took and adjusts the pace.
func (p *Pacer) Observe(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ceiling == 0 {
		return
	}

	p.ema = time.Duration(emaAlpha*float64(d) + (1-emaAlpha)*float64(p.ema))
	ratio := float64(p.target) / float64(max(p.ema, time.Millisecond))

	next := p.current * recoveryFactor
	if ratio < 1 {
		next = max(p.current*ratio, p.current*backoffFactor)
	}
	next = min(max(next, p.ceiling/floorDivisor), p.ceiling)

	if math.Abs(next-p.current) > 1e-6 {
		p.current = next
		p.limiter.SetLimit(rate.Limit(next))
	}
}

// Rate returns the current page loads per second, 0 when unpaced.
func (p *Pacer) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// AverageDuration returns the moving average of observed run durations.
func (p *Pacer) AverageDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ema
}
