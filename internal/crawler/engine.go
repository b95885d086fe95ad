// Package crawler implements the crawl orchestrator: the URL frontier,
// scope and policy filtering, per-origin politeness, and the bounded
// worker pool that drives fetching, link discovery, and rendering.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/7not-nico/web2pdf/internal/config"
	"github.com/7not-nico/web2pdf/internal/extract"
	"github.com/7not-nico/web2pdf/internal/fetcher"
	"github.com/7not-nico/web2pdf/internal/render"
	"github.com/7not-nico/web2pdf/internal/robots"
	"github.com/7not-nico/web2pdf/pkg/types"
)

// ErrSeedUnreachable is returned when the seed URL fails validation or
// the preflight check; it is the only per-URL failure that aborts a
// run.
var ErrSeedUnreachable = errors.New("seed unreachable")

// Collaborators are the external capabilities the engine drives. Each
// is a narrow interface so tests can substitute doubles.
type Collaborators struct {
	Fetcher  fetcher.Fetcher
	Renderer render.Renderer
	Robots   robots.Source
}

// Engine owns one crawl run: it admits the seed, runs a fixed-size
// worker pool against the frontier, and terminates when the frontier
// drains or the context is cancelled.
type Engine struct {
	cfg       config.Config
	fetcher   fetcher.Fetcher
	renderer  render.Renderer
	robotsSrc robots.Source

	frontier  *Frontier
	governor  *Governor
	collector *Collector
	stats     *Stats

	maxPages int64
	admitted atomic.Int64

	logger *slog.Logger
}

// NewEngine builds an engine from configuration and collaborators.
func NewEngine(cfg config.Config, collab Collaborators, logger *slog.Logger) (*Engine, error) {
	if collab.Fetcher == nil {
		return nil, errors.New("engine requires a fetcher")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:       cfg,
		fetcher:   collab.Fetcher,
		renderer:  collab.Renderer,
		robotsSrc: collab.Robots,
		frontier:  NewFrontier(),
		governor:  NewGovernor(cfg.Politeness),
		collector: NewCollector(),
		stats:     &Stats{},
		maxPages:  int64(cfg.Crawl.MaxPages),
		logger:    logger,
	}, nil
}

// Stats exposes the run counters for reporting.
func (e *Engine) Stats() Snapshot {
	return e.stats.Snapshot()
}

// Run executes the crawl until the frontier drains or ctx is
// cancelled. Collected results are returned in (depth, url) order even
// when the run ends early; the caller decides what to do with a
// partial set.
func (e *Engine) Run(ctx context.Context) ([]types.Result, error) {
	seed, err := Normalize(e.cfg.Crawl.Seed, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid seed %q: %w", e.cfg.Crawl.Seed, err)
	}
	if err := e.fetcher.Preflight(ctx, seed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeedUnreachable, err)
	}

	robotsPolicy := robots.Permissive()
	if e.cfg.Robots.Respect && e.robotsSrc != nil {
		robotsPolicy, err = e.robotsSrc.Policy(ctx, seed)
		if err != nil {
			e.logger.Warn("robots fetch failed, continuing permissive", "error", err)
			robotsPolicy = robots.Permissive()
		}
	}

	policy, err := NewPolicy(seed, robotsPolicy, e.cfg.Crawl.IncludePatterns, e.cfg.Crawl.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	e.admit(seed, 0)

	// Cancellation releases workers parked on the frontier.
	stop := context.AfterFunc(ctx, e.frontier.Close)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < e.cfg.Worker.Concurrency; i++ {
		g.Go(func() error {
			e.worker(gctx, policy)
			return nil
		})
	}
	_ = g.Wait()

	results := e.collector.Drain()
	if ctx.Err() != nil {
		return results, ctx.Err()
	}
	return results, nil
}

// worker loops taking tasks until the frontier reports drained or
// closed. Per-task failures never escape process; the worker moves on
// to the next task.
func (e *Engine) worker(ctx context.Context, policy *Policy) {
	for {
		task, ok := e.frontier.Take()
		if !ok {
			return
		}
		e.process(ctx, policy, task)
		e.frontier.Done()
	}
}

func (e *Engine) process(ctx context.Context, policy *Policy, task Task) {
	if ctx.Err() != nil {
		return
	}
	// Depth was checked at admission; checked again here so a
	// misconfigured admission path can never reach the network.
	if task.Depth > e.cfg.Crawl.MaxDepth {
		return
	}
	if !policy.Admissible(task.URL) {
		return
	}

	page := e.fetchWithRetry(ctx, task.URL)
	if page == nil {
		return
	}
	e.stats.Fetched.Add(1)

	if !isHTML(page.ContentType) {
		e.stats.Skipped.Add(1)
		e.logger.Debug("skipping non-HTML content",
			"url", task.URL.String(), "content_type", page.ContentType)
		return
	}

	// Redirects may have moved us; resolve discovered links against
	// the final address.
	base := task.URL
	if page.FinalURL != nil {
		if nb, err := Normalize(page.FinalURL.String(), nil); err == nil {
			base = nb
		}
	}

	title := extract.Title(page.Body)

	if task.Depth < e.cfg.Crawl.MaxDepth {
		e.discover(policy, page.Body, base, task.Depth+1)
	}

	if e.renderer == nil {
		e.collector.Add(types.Result{
			URL:      task.URL,
			Depth:    task.Depth,
			Title:    title,
			ByteSize: len(page.Body),
		})
		return
	}

	artifact, err := e.renderer.Render(ctx, task.URL, page.Body)
	if err != nil {
		// Drop the page but keep its discovered links: one bad render
		// must not poison sibling or descendant crawling.
		e.stats.RenderErrors.Add(1)
		e.logger.Warn("render failed", "url", task.URL.String(), "error", err)
		return
	}
	e.stats.Rendered.Add(1)
	e.collector.Add(types.Result{
		URL:      task.URL,
		Depth:    task.Depth,
		Title:    title,
		Artifact: artifact,
		ByteSize: len(artifact),
	})
}

// discover normalizes, filters, and admits every anchor found on a
// page at the given child depth.
func (e *Engine) discover(policy *Policy, body []byte, base *url.URL, depth int) {
	for _, href := range extract.Anchors(body, e.cfg.Crawl.MaxLinksPerPage) {
		child, err := Normalize(href, base)
		if err != nil {
			e.logger.Debug("dropping href", "href", href, "error", err)
			continue
		}
		if !policy.Admissible(child) {
			e.stats.Rejected.Add(1)
			continue
		}
		e.admit(child, depth)
	}
}

// admit gates frontier admission by depth and the global page budget.
func (e *Engine) admit(u *url.URL, depth int) bool {
	if depth > e.cfg.Crawl.MaxDepth {
		return false
	}
	if e.maxPages > 0 {
		if e.admitted.Add(1) > e.maxPages {
			e.admitted.Add(-1)
			return false
		}
	}
	if !e.frontier.TryAdmit(u, depth) {
		if e.maxPages > 0 {
			e.admitted.Add(-1)
		}
		return false
	}
	e.stats.Admitted.Add(1)
	return true
}

// fetchWithRetry runs the politeness governor and the fetch for up to
// retry_attempts+1 tries, widening the origin's delay on every
// failure. Returns nil once the task is abandoned; the URL stays
// visited and is never re-admitted.
func (e *Engine) fetchWithRetry(ctx context.Context, u *url.URL) *types.Page {
	origin := robots.Origin(u)
	attempts := e.cfg.Crawl.RetryAttempts + 1

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := e.cfg.Crawl.RetryBackoff.Duration << (attempt - 1)
			if backoff > 0 {
				if err := sleepCtx(ctx, backoff); err != nil {
					return nil
				}
			}
		}
		if err := e.governor.Wait(ctx, origin); err != nil {
			return nil
		}

		page, err := e.fetcher.Fetch(ctx, u)
		if err == nil && page.StatusCode >= 200 && page.StatusCode < 300 {
			e.governor.RecordSuccess(origin)
			return page
		}

		e.governor.RecordFailure(origin)
		if err != nil {
			e.logger.Warn("fetch failed", "url", u.String(), "attempt", attempt+1, "error", err)
		} else {
			e.logger.Warn("fetch failed", "url", u.String(), "attempt", attempt+1, "status", page.StatusCode)
		}
	}

	e.stats.FetchErrors.Add(1)
	return nil
}

// isHTML accepts text/html and XHTML; an absent content type is
// treated as HTML since minimal servers often omit the header.
func isHTML(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" {
		return true
	}
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
