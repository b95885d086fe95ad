package types

import (
	"net/http"
	"net/url"
	"time"
)

// Page is the raw outcome of fetching a single URL.
type Page struct {
	URL         *url.URL
	FinalURL    *url.URL
	Body        []byte
	ContentType string
	StatusCode  int
	Headers     http.Header
	FetchedAt   time.Time
}

// Result is one successfully crawled and rendered page.
// Immutable once produced; the frontier guarantees at most one
// Result per URL for the lifetime of a run.
type Result struct {
	URL      *url.URL
	Depth    int
	Title    string
	Artifact []byte
	ByteSize int
}
