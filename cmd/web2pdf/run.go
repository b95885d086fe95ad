package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/7not-nico/web2pdf/internal/assemble"
	"github.com/7not-nico/web2pdf/internal/config"
	"github.com/7not-nico/web2pdf/internal/crawler"
	"github.com/7not-nico/web2pdf/internal/fetcher"
	"github.com/7not-nico/web2pdf/internal/render"
	"github.com/7not-nico/web2pdf/internal/robots"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [seed-url]",
		Short: "Crawl a site and produce the merged PDF",
		Long: `Run crawls the site reachable from the seed URL and writes the
merged document plus a Markdown crawl report.

Examples:
  # Crawl two levels deep and write site.pdf
  web2pdf run https://docs.example.com

  # Narrow the crawl and pick the output file
  web2pdf run https://docs.example.com -d 3 -o docs.pdf --exclude '\.(zip|tar\.gz)$'

  # Use a configuration file; flags still override it
  web2pdf run -c web2pdf.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawl,
	}

	cmd.Flags().StringP("config", "c", "", "Path to YAML configuration file")
	cmd.Flags().StringP("output", "o", "", "Output PDF file")
	cmd.Flags().IntP("depth", "d", -1, "Maximum crawl depth (0 = seed only)")
	cmd.Flags().IntP("max-pages", "p", -1, "Maximum number of pages to crawl (0 = unlimited)")
	cmd.Flags().IntP("workers", "w", 0, "Number of concurrent crawl workers")
	cmd.Flags().StringSlice("include", nil, "Regexp pattern a URL must match to be crawled (repeatable)")
	cmd.Flags().StringSlice("exclude", nil, "Regexp pattern that rejects a URL (repeatable)")
	cmd.Flags().Bool("ignore-robots", false, "Do not fetch or honor robots.txt")
	cmd.Flags().Duration("timeout", 0, "Per-request timeout")

	return cmd
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cmd, cfg.Logging)
	if err != nil {
		return err
	}

	httpFetcher := fetcher.NewHTTPFetcher(fetcher.Options{
		UserAgent:    cfg.Crawl.UserAgent,
		Timeout:      cfg.Crawl.RequestTimeout.Duration,
		MaxBodyBytes: cfg.Crawl.MaxBodyBytes,
	})

	renderer := render.NewChromePDF(render.Options{
		Timeout:            cfg.Render.Timeout.Duration,
		UserAgent:          cfg.Crawl.UserAgent,
		ConcurrentSessions: cfg.Render.ConcurrentSessions,
		DisableHeadless:    cfg.Render.DisableHeadless,
		PrintBackground:    cfg.Render.PrintBackground,
		Landscape:          cfg.Render.Landscape,
	}, logger)

	engine, err := crawler.NewEngine(*cfg, crawler.Collaborators{
		Fetcher:  httpFetcher,
		Renderer: renderer,
		Robots:   robots.NewAgent(httpFetcher.Client(), cfg.Robots.UserAgent),
	}, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	logger.Info("starting crawl", "seed", cfg.Crawl.Seed, "max_depth", cfg.Crawl.MaxDepth)

	results, runErr := engine.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if errors.Is(runErr, context.Canceled) {
		logger.Warn("crawl interrupted, assembling partial document", "pages", len(results))
	}

	summary := assemble.Summary{
		Title:    cfg.Output.Title,
		Seed:     cfg.Crawl.Seed,
		Started:  started,
		Duration: time.Since(started),
		Stats:    engine.Stats(),
		Results:  results,
	}

	if cfg.Output.ReportFile != "" {
		if err := assemble.WriteReportFile(cfg.Output.ReportFile, summary); err != nil {
			logger.Error("write report failed", "error", err)
		}
	}

	err = assemble.DocumentFile(cfg.Output.File, results, assemble.Options{
		DividerPages: cfg.Output.DividerPages,
	})
	switch {
	case errors.Is(err, assemble.ErrNoPages):
		fmt.Fprintln(cmd.OutOrStdout(), "no pages found")
		return nil
	case err != nil:
		return err
	}

	logger.Info("crawl complete",
		"pages", len(results),
		"output", cfg.Output.File,
		"duration", time.Since(started).Round(time.Millisecond).String(),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d pages to %s\n", len(results), cfg.Output.File)
	return nil
}

// buildConfig loads the config file (when given), then applies flag
// and argument overrides on top.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	} else {
		cfg = config.Default()
	}

	if len(args) > 0 {
		cfg.Crawl.Seed = args[0]
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.Output.File = out
	}
	if depth, _ := cmd.Flags().GetInt("depth"); depth >= 0 {
		cfg.Crawl.MaxDepth = depth
	}
	if pages, _ := cmd.Flags().GetInt("max-pages"); pages >= 0 {
		cfg.Crawl.MaxPages = pages
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Worker.Concurrency = workers
	}
	if include, _ := cmd.Flags().GetStringSlice("include"); len(include) > 0 {
		cfg.Crawl.IncludePatterns = append(cfg.Crawl.IncludePatterns, include...)
	}
	if exclude, _ := cmd.Flags().GetStringSlice("exclude"); len(exclude) > 0 {
		cfg.Crawl.ExcludePatterns = append(cfg.Crawl.ExcludePatterns, exclude...)
	}
	if ignore, _ := cmd.Flags().GetBool("ignore-robots"); ignore {
		cfg.Robots.Respect = false
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Crawl.RequestTimeout = config.DurationFrom(timeout)
	}

	cfg.Normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func buildLogger(cmd *cobra.Command, cfg config.LoggingConfig) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unsupported log level %q", cfg.Level)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Structured {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler), nil
}
