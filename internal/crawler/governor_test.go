package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/7not-nico/web2pdf/internal/config"
)

// fakeClock drives a Governor deterministically: sleeps advance the
// clock instead of blocking.
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func (c *fakeClock) install(g *Governor) {
	g.now = func() time.Time { return c.now }
	g.sleep = func(_ context.Context, d time.Duration) error {
		c.slept = append(c.slept, d)
		c.now = c.now.Add(d)
		return nil
	}
}

func testGovernor(min, max time.Duration, factor float64) (*Governor, *fakeClock) {
	g := NewGovernor(config.PolitenessConfig{
		MinDelay:      config.DurationFrom(min),
		MaxDelay:      config.DurationFrom(max),
		BackoffFactor: factor,
	})
	clock := newFakeClock()
	clock.install(g)
	return g, clock
}

func TestGovernorSpacesSameOrigin(t *testing.T) {
	t.Parallel()

	g, clock := testGovernor(time.Second, time.Minute, 2)
	ctx := context.Background()

	if err := g.Wait(ctx, "https://site.test"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	if len(clock.slept) != 0 {
		t.Fatalf("first request should not sleep, slept %v", clock.slept)
	}

	if err := g.Wait(ctx, "https://site.test"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if len(clock.slept) != 1 || clock.slept[0] != time.Second {
		t.Fatalf("second request should sleep the min delay, slept %v", clock.slept)
	}
}

func TestGovernorIndependentOrigins(t *testing.T) {
	t.Parallel()

	g, clock := testGovernor(time.Second, time.Minute, 2)
	ctx := context.Background()

	_ = g.Wait(ctx, "https://a.test")
	_ = g.Wait(ctx, "https://b.test")
	if len(clock.slept) != 0 {
		t.Fatalf("different origins must not delay each other, slept %v", clock.slept)
	}
}

func TestGovernorBackoffGrowsAndClamps(t *testing.T) {
	t.Parallel()

	g, _ := testGovernor(time.Second, 4*time.Second, 2)

	if got := g.delayFor(0); got != time.Second {
		t.Errorf("delayFor(0) = %v, want 1s", got)
	}
	if got := g.delayFor(1); got != 2*time.Second {
		t.Errorf("delayFor(1) = %v, want 2s", got)
	}
	if got := g.delayFor(2); got != 4*time.Second {
		t.Errorf("delayFor(2) = %v, want 4s", got)
	}
	// Clamped at max from here on.
	if got := g.delayFor(10); got != 4*time.Second {
		t.Errorf("delayFor(10) = %v, want clamp at 4s", got)
	}
}

func TestGovernorFailureWidensSpacing(t *testing.T) {
	t.Parallel()

	g, clock := testGovernor(time.Second, time.Minute, 2)
	ctx := context.Background()

	_ = g.Wait(ctx, "https://site.test")
	g.RecordFailure("https://site.test")
	g.RecordFailure("https://site.test")

	_ = g.Wait(ctx, "https://site.test")
	if len(clock.slept) != 1 || clock.slept[0] != 4*time.Second {
		t.Fatalf("after two failures spacing should be 4s, slept %v", clock.slept)
	}

	g.RecordSuccess("https://site.test")
	_ = g.Wait(ctx, "https://site.test")
	if clock.slept[len(clock.slept)-1] != time.Second {
		t.Fatalf("success should reset spacing to min delay, slept %v", clock.slept)
	}
}

func TestGovernorSerializesConcurrentReservations(t *testing.T) {
	t.Parallel()

	g, clock := testGovernor(time.Second, time.Minute, 1)
	ctx := context.Background()

	// Three back-to-back reservations at the same instant: the slot
	// times must stack, not overlap.
	var total time.Duration
	for i := 0; i < 3; i++ {
		before := clock.now
		if err := g.Wait(ctx, "https://site.test"); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
		total += clock.now.Sub(before)
	}
	if total != 2*time.Second {
		t.Fatalf("three requests should be spaced by 2x min delay in total, got %v", total)
	}
}

func TestGovernorZeroDelayDisabled(t *testing.T) {
	t.Parallel()

	g, clock := testGovernor(0, 0, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := g.Wait(ctx, "https://site.test"); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if len(clock.slept) != 0 {
		t.Fatalf("zero min delay should never sleep, slept %v", clock.slept)
	}
}

func TestGovernorWaitHonorsCancellation(t *testing.T) {
	t.Parallel()

	g := NewGovernor(config.PolitenessConfig{
		MinDelay:      config.DurationFrom(time.Hour),
		MaxDelay:      config.DurationFrom(time.Hour),
		BackoffFactor: 2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := g.Wait(ctx, "https://site.test"); err != nil {
		t.Fatalf("first wait reserves without sleeping: %v", err)
	}
	if err := g.Wait(ctx, "https://site.test"); err == nil {
		t.Fatal("second wait should fail on a cancelled context")
	}
}
