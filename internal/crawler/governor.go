package crawler

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/7not-nico/web2pdf/internal/config"
)

// Governor enforces per-origin politeness: consecutive requests to
// the same origin are spaced by at least the current delay, and the
// delay widens multiplicatively while an origin keeps failing.
//
// Each Wait reserves a slot under the governor's lock and sleeps
// outside it, so concurrent workers hitting one origin queue behind
// each other
// without ever computing a window from stale state, and no lock is
// held across blocking calls.
type Governor struct {
	minDelay time.Duration
	maxDelay time.Duration
	factor   float64

	rateCfg config.RateLimitConfig

	mu       sync.Mutex
	origins  map[string]*originTimer
	limiters map[string]*rate.Limiter

	// Injectable for tests with a fake clock.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// originTimer is the per-origin politeness state, created lazily on
// the first request to an origin and kept for the run's lifetime.
// last holds the reserved time of the most recent request slot.
type originTimer struct {
	last time.Time
	errs int
}

// NewGovernor builds a governor from politeness configuration.
func NewGovernor(cfg config.PolitenessConfig) *Governor {
	g := &Governor{
		minDelay: cfg.MinDelay.Duration,
		maxDelay: cfg.MaxDelay.Duration,
		factor:   cfg.BackoffFactor,
		rateCfg:  cfg.RateLimit,
		origins:  make(map[string]*originTimer),
		now:      time.Now,
		sleep:    sleepCtx,
	}
	if g.factor < 1 {
		g.factor = 1
	}
	if g.maxDelay < g.minDelay {
		g.maxDelay = g.minDelay
	}
	if g.rateCfg.Enabled() {
		g.limiters = make(map[string]*rate.Limiter)
	}
	return g
}

// Wait blocks until the caller may issue a request to origin. It must
// be called immediately before every fetch attempt, including retries.
func (g *Governor) Wait(ctx context.Context, origin string) error {
	if g == nil || origin == "" {
		return nil
	}
	origin = strings.ToLower(origin)

	g.mu.Lock()
	timer := g.origins[origin]
	if timer == nil {
		timer = &originTimer{}
		g.origins[origin] = timer
	}
	delay := g.delayFor(timer.errs)
	now := g.now()
	slot := timer.last.Add(delay)
	if slot.Before(now) {
		slot = now
	}
	timer.last = slot
	var limiter *rate.Limiter
	if g.limiters != nil {
		limiter = g.ensureLimiterLocked(origin)
	}
	g.mu.Unlock()

	if d := slot.Sub(now); d > 0 {
		if err := g.sleep(ctx, d); err != nil {
			return err
		}
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RecordFailure widens the origin's delay after a failed fetch.
func (g *Governor) RecordFailure(origin string) {
	g.adjust(origin, func(t *originTimer) { t.errs++ })
}

// RecordSuccess restores the origin's delay to the configured minimum.
func (g *Governor) RecordSuccess(origin string) {
	g.adjust(origin, func(t *originTimer) { t.errs = 0 })
}

func (g *Governor) adjust(origin string, fn func(*originTimer)) {
	if g == nil || origin == "" {
		return
	}
	origin = strings.ToLower(origin)
	g.mu.Lock()
	timer := g.origins[origin]
	if timer == nil {
		timer = &originTimer{}
		g.origins[origin] = timer
	}
	fn(timer)
	g.mu.Unlock()
}

// delayFor computes minDelay * factor^consecutiveErrors clamped to
// [minDelay, maxDelay].
func (g *Governor) delayFor(errs int) time.Duration {
	if g.minDelay <= 0 {
		return 0
	}
	if errs <= 0 || g.factor == 1 {
		return g.minDelay
	}
	scaled := float64(g.minDelay) * math.Pow(g.factor, float64(errs))
	if scaled > float64(g.maxDelay) {
		return g.maxDelay
	}
	return time.Duration(scaled)
}

func (g *Governor) ensureLimiterLocked(origin string) *rate.Limiter {
	limiter, ok := g.limiters[origin]
	if ok {
		return limiter
	}
	interval := g.rateCfg.Window.Duration / time.Duration(g.rateCfg.Requests)
	if interval <= 0 {
		interval = time.Millisecond
	}
	limiter = rate.NewLimiter(rate.Every(interval), g.rateCfg.Requests)
	g.limiters[origin] = limiter
	return limiter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
