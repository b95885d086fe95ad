// Package robots fetches and evaluates the robots.txt policy for one
// site. The policy is fetched once per crawl run, before scheduling
// begins, and is read-only afterwards.
package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
)

// Policy holds the parsed robots rules applicable to one user agent.
// A Policy with no rules is permissive; absence of robots.txt never
// blocks a crawl.
type Policy struct {
	group *robotstxt.Group
}

// Permissive returns a Policy that allows every path.
func Permissive() *Policy {
	return &Policy{}
}

// Parse builds a Policy for userAgent from raw robots.txt content.
// Exposed so tests can construct policies without HTTP.
func Parse(data []byte, userAgent string) (*Policy, error) {
	rules, err := robotstxt.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return policyFor(rules, userAgent), nil
}

// Allowed reports whether the given URL path may be fetched.
func (p *Policy) Allowed(path string) bool {
	if p == nil || p.group == nil {
		return true
	}
	if path == "" {
		path = "/"
	}
	return p.group.Test(path)
}

// Source supplies the robots policy for an origin. The HTTP-backed
// Agent is the production implementation; tests substitute their own.
type Source interface {
	Policy(ctx context.Context, origin *url.URL) (*Policy, error)
}

// Agent fetches robots.txt over HTTP.
type Agent struct {
	client    *http.Client
	userAgent string
}

// NewAgent constructs a robots agent reusing the crawler's HTTP client.
func NewAgent(client *http.Client, userAgent string) *Agent {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Agent{client: client, userAgent: userAgent}
}

// Policy fetches and parses robots.txt for the origin of the given URL.
// Missing or unreadable robots.txt yields a permissive policy; failing
// open on robots errors is common industry practice.
func (a *Agent) Policy(ctx context.Context, origin *url.URL) (*Policy, error) {
	if origin == nil {
		return Permissive(), nil
	}

	robotsURL := origin.Scheme + "://" + origin.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return Permissive(), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Permissive(), nil
	}

	rules, err := robotstxt.FromResponse(resp)
	if err != nil {
		return Permissive(), nil
	}
	return policyFor(rules, a.userAgent), nil
}

func policyFor(rules *robotstxt.RobotsData, userAgent string) *Policy {
	group := rules.FindGroup(userAgent)
	if group == nil {
		group = rules.FindGroup("*")
	}
	return &Policy{group: group}
}

// Origin returns the scheme+host identity used for politeness and
// robots scoping.
func Origin(u *url.URL) string {
	if u == nil {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
