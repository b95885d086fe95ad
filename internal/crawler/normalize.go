package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL reports a raw href that cannot be resolved to an
// absolute HTTP(S) URL. Discovering links that fail normalization is
// routine; callers drop them without aborting the page.
var ErrInvalidURL = errors.New("invalid url")

// defaultScheme is applied to schemeless absolute references.
const defaultScheme = "https"

// Normalize canonicalizes a raw href into an absolute, comparable URL.
// Relative references are resolved against base when provided. The
// result always has a lowercase http(s) scheme and host, no fragment,
// no default port, and a non-empty path, so its string form is a
// stable map key.
func Normalize(raw string, base *url.URL) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty href", ErrInvalidURL)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !parsed.IsAbs() && base != nil {
		parsed = base.ResolveReference(parsed)
	}
	if parsed.Scheme == "" && parsed.Host != "" {
		parsed.Scheme = defaultScheme
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}

	normalized := *parsed
	normalized.Scheme = scheme
	normalized.Fragment = ""
	normalized.RawFragment = ""

	host := strings.ToLower(parsed.Hostname())
	if port := parsed.Port(); port != "" && port != defaultPort(scheme) {
		host = host + ":" + port
	}
	normalized.Host = host

	if normalized.Path == "" {
		normalized.Path = "/"
	}

	return &normalized, nil
}

// Key returns the canonical string identity of a normalized URL.
func Key(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	default:
		return ""
	}
}
