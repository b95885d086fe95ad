package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the full configuration required to run one crawl.
type Config struct {
	Crawl      CrawlConfig      `yaml:"crawl"`
	Politeness PolitenessConfig `yaml:"politeness"`
	Worker     WorkerConfig     `yaml:"worker"`
	Robots     RobotsConfig     `yaml:"robots"`
	Render     RenderConfig     `yaml:"render"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// CrawlConfig controls the frontier, scope filtering, and fetch behaviour.
type CrawlConfig struct {
	Seed            string   `yaml:"seed"`
	MaxDepth        int      `yaml:"max_depth"`
	MaxPages        int      `yaml:"max_pages"`
	UserAgent       string   `yaml:"user_agent"`
	RequestTimeout  Duration `yaml:"request_timeout"`
	RetryAttempts   int      `yaml:"retry_attempts"`
	RetryBackoff    Duration `yaml:"retry_backoff"`
	IncludePatterns []string `yaml:"include_patterns"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
	MaxLinksPerPage int      `yaml:"max_links_per_page"`
}

// PolitenessConfig controls per-host request spacing.
type PolitenessConfig struct {
	MinDelay      Duration        `yaml:"min_delay"`
	MaxDelay      Duration        `yaml:"max_delay"`
	BackoffFactor float64         `yaml:"backoff_factor"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig applies an optional token bucket per host on top of
// the adaptive delay.
type RateLimitConfig struct {
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
}

// Enabled reports whether per-host token-bucket limiting is active.
func (r RateLimitConfig) Enabled() bool {
	return r.Requests > 0 && !r.Window.IsZero()
}

// WorkerConfig controls crawl concurrency.
type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// RobotsConfig configures robots.txt handling.
type RobotsConfig struct {
	Respect   bool   `yaml:"respect"`
	UserAgent string `yaml:"user_agent"`
}

// RenderConfig controls the headless-Chrome PDF renderer.
type RenderConfig struct {
	Timeout            Duration `yaml:"timeout"`
	ConcurrentSessions int      `yaml:"concurrent_sessions"`
	DisableHeadless    bool     `yaml:"disable_headless"`
	PrintBackground    bool     `yaml:"print_background"`
	Landscape          bool     `yaml:"landscape"`
}

// OutputConfig selects where the merged document and crawl report go.
type OutputConfig struct {
	File         string `yaml:"file"`
	Title        string `yaml:"title"`
	ReportFile   string `yaml:"report_file"`
	DividerPages bool   `yaml:"divider_pages"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Crawl: CrawlConfig{
			MaxDepth:        2,
			MaxPages:        500,
			UserAgent:       "web2pdf-bot/1.0",
			RequestTimeout:  DurationFrom(10 * time.Second),
			RetryAttempts:   2,
			RetryBackoff:    DurationFrom(500 * time.Millisecond),
			MaxBodyBytes:    6 * 1024 * 1024,
			MaxLinksPerPage: 200,
		},
		Politeness: PolitenessConfig{
			MinDelay:      DurationFrom(500 * time.Millisecond),
			MaxDelay:      DurationFrom(30 * time.Second),
			BackoffFactor: 2.0,
		},
		Worker: WorkerConfig{
			Concurrency: 4,
		},
		Robots: RobotsConfig{
			Respect: true,
		},
		Render: RenderConfig{
			Timeout:            DurationFrom(45 * time.Second),
			ConcurrentSessions: 2,
			PrintBackground:    true,
		},
		Output: OutputConfig{
			File:       "site.pdf",
			ReportFile: "crawl-report.md",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: false,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required invariants for the crawl configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Crawl.Seed) == "" {
		return errors.New("crawl.seed must be set")
	}
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("crawl.max_depth must be >= 0 (got %d)", c.Crawl.MaxDepth)
	}
	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must be >= 0 (got %d)", c.Crawl.MaxPages)
	}
	if c.Crawl.RetryAttempts < 0 {
		return fmt.Errorf("crawl.retry_attempts must be >= 0 (got %d)", c.Crawl.RetryAttempts)
	}
	if c.Crawl.MaxBodyBytes <= 0 {
		return fmt.Errorf("crawl.max_body_bytes must be > 0 (got %d)", c.Crawl.MaxBodyBytes)
	}
	if strings.TrimSpace(c.Crawl.UserAgent) == "" {
		return errors.New("crawl.user_agent must be set")
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker.concurrency must be > 0 (got %d)", c.Worker.Concurrency)
	}
	if c.Politeness.MinDelay.Duration < 0 {
		return fmt.Errorf("politeness.min_delay must be >= 0 (got %s)", c.Politeness.MinDelay)
	}
	if c.Politeness.MaxDelay.Duration < c.Politeness.MinDelay.Duration {
		return fmt.Errorf("politeness.max_delay must be >= min_delay (got %s < %s)",
			c.Politeness.MaxDelay, c.Politeness.MinDelay)
	}
	if c.Politeness.BackoffFactor < 1 {
		return fmt.Errorf("politeness.backoff_factor must be >= 1 (got %g)", c.Politeness.BackoffFactor)
	}
	if rl := c.Politeness.RateLimit; rl.Requests < 0 {
		return fmt.Errorf("politeness.rate_limit.requests must be >= 0 (got %d)", rl.Requests)
	}
	if c.Render.ConcurrentSessions <= 0 {
		return fmt.Errorf("render.concurrent_sessions must be > 0 (got %d)", c.Render.ConcurrentSessions)
	}
	if strings.TrimSpace(c.Output.File) == "" {
		return errors.New("output.file must be set")
	}
	return nil
}

// Normalise trims string fields and applies fallback values that depend
// on other fields.
func (c *Config) Normalise() {
	c.Crawl.Seed = strings.TrimSpace(c.Crawl.Seed)
	if c.Crawl.Seed != "" && !strings.Contains(c.Crawl.Seed, "://") {
		// Operators type bare hosts; default them to https.
		if strings.HasPrefix(c.Crawl.Seed, "//") {
			c.Crawl.Seed = "https:" + c.Crawl.Seed
		} else {
			c.Crawl.Seed = "https://" + c.Crawl.Seed
		}
	}
	c.Crawl.UserAgent = strings.TrimSpace(c.Crawl.UserAgent)
	c.Robots.UserAgent = strings.TrimSpace(c.Robots.UserAgent)
	if c.Robots.UserAgent == "" {
		c.Robots.UserAgent = c.Crawl.UserAgent
	}
	c.Output.File = strings.TrimSpace(c.Output.File)
	c.Output.ReportFile = strings.TrimSpace(c.Output.ReportFile)
	c.Output.Title = strings.TrimSpace(c.Output.Title)

	c.Crawl.IncludePatterns = trimNonEmpty(c.Crawl.IncludePatterns)
	c.Crawl.ExcludePatterns = trimNonEmpty(c.Crawl.ExcludePatterns)
}

func trimNonEmpty(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		cleaned = append(cleaned, v)
	}
	return cleaned
}
