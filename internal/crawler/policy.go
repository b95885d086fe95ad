package crawler

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/7not-nico/web2pdf/internal/robots"
)

// Policy decides whether a normalized URL may be admitted into the
// frontier. It is pure with respect to crawl state: it reads only the
// immutable robots policy and the compiled patterns.
type Policy struct {
	host    string
	robots  *robots.Policy
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// NewPolicy compiles the include/exclude patterns and scopes the
// filter to the seed's host.
func NewPolicy(seed *url.URL, robotsPolicy *robots.Policy, includePatterns, excludePatterns []string) (*Policy, error) {
	if seed == nil {
		return nil, fmt.Errorf("policy requires a seed URL")
	}
	include, err := compilePatterns(includePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	exclude, err := compilePatterns(excludePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}
	return &Policy{
		host:    strings.ToLower(seed.Hostname()),
		robots:  robotsPolicy,
		include: include,
		exclude: exclude,
	}, nil
}

// Admissible applies the scope rules in order; the first failing rule
// rejects. Excludes are checked before includes so operators can
// blanket-deny asset paths while narrowly allowing content paths.
func (p *Policy) Admissible(u *url.URL) bool {
	if u == nil {
		return false
	}
	if !strings.EqualFold(u.Hostname(), p.host) {
		return false
	}
	if p.robots != nil && !p.robots.Allowed(u.Path) {
		return false
	}
	target := u.String()
	for _, pat := range p.exclude {
		if pat.MatchString(target) {
			return false
		}
	}
	if len(p.include) == 0 {
		return true
	}
	for _, pat := range p.include {
		if pat.MatchString(target) {
			return true
		}
	}
	return looksLikeContentPath(u.Path)
}

// looksLikeContentPath is the fallback heuristic for URLs that match
// no include pattern: documentation sites routinely serve pages at
// extensionless paths or directory-style URLs.
func looksLikeContentPath(p string) bool {
	if p == "" || strings.HasSuffix(p, "/") {
		return true
	}
	switch strings.ToLower(path.Ext(p)) {
	case "", ".html", ".htm":
		return true
	}
	return false
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, raw := range patterns {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		pat, err := regexp.Compile(raw)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, pat)
	}
	return compiled, nil
}
