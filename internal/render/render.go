// Package render converts crawled pages into PDF artifacts with
// headless Chrome.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Renderer produces a PDF artifact for one page. The fetched body is
// supplied so test doubles can render without a browser; the Chrome
// implementation navigates the URL instead, which picks up
// stylesheets and images the raw body alone would miss.
type Renderer interface {
	Render(ctx context.Context, u *url.URL, body []byte) ([]byte, error)
}

// Options configures the Chrome rendering sessions.
type Options struct {
	Timeout            time.Duration
	UserAgent          string
	ConcurrentSessions int
	DisableHeadless    bool
	PrintBackground    bool
	Landscape          bool
}

// ChromePDF renders pages by printing them to PDF in headless Chrome.
// Sessions are bounded by a semaphore; renders are slow and each one
// owns a browser process.
type ChromePDF struct {
	opts      Options
	semaphore chan struct{}
	logger    *slog.Logger
}

// NewChromePDF constructs a renderer with bounded concurrency.
func NewChromePDF(opts Options, logger *slog.Logger) *ChromePDF {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	if opts.ConcurrentSessions <= 0 {
		opts.ConcurrentSessions = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromePDF{
		opts:      opts,
		semaphore: make(chan struct{}, opts.ConcurrentSessions),
		logger:    logger,
	}
}

// Render navigates to the target URL and prints the settled page to
// PDF. The fetched body is unused here; link discovery already
// happened on it.
func (r *ChromePDF) Render(parentCtx context.Context, u *url.URL, _ []byte) ([]byte, error) {
	if u == nil {
		return nil, fmt.Errorf("render URL is nil")
	}

	select {
	case r.semaphore <- struct{}{}:
		defer func() { <-r.semaphore }()
	case <-parentCtx.Done():
		return nil, parentCtx.Err()
	}

	ctx, cancel := context.WithTimeout(parentCtx, r.opts.Timeout)
	defer cancel()

	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", !r.opts.DisableHeadless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	}
	if r.opts.UserAgent != "" {
		execOpts = append(execOpts, chromedp.UserAgent(r.opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	start := time.Now()
	var pdf []byte
	err := chromedp.Run(chromeCtx,
		chromedp.Navigate(u.String()),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(250*time.Millisecond),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(r.opts.PrintBackground).
				WithLandscape(r.opts.Landscape).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp print: %w", err)
	}

	r.logger.Debug("rendered page",
		"url", u.String(),
		"latency_ms", time.Since(start).Milliseconds(),
		"pdf_bytes", len(pdf),
	)
	return pdf, nil
}
