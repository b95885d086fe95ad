package crawler

import "sync/atomic"

// Stats counts crawl outcomes across workers.
type Stats struct {
	Admitted     atomic.Int64
	Fetched      atomic.Int64
	FetchErrors  atomic.Int64
	Skipped      atomic.Int64
	Rejected     atomic.Int64
	Rendered     atomic.Int64
	RenderErrors atomic.Int64
}

// Snapshot is a plain-value copy of Stats for reporting.
type Snapshot struct {
	Admitted     int64
	Fetched      int64
	FetchErrors  int64
	Skipped      int64
	Rejected     int64
	Rendered     int64
	RenderErrors int64
}

// Snapshot captures the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Admitted:     s.Admitted.Load(),
		Fetched:      s.Fetched.Load(),
		FetchErrors:  s.FetchErrors.Load(),
		Skipped:      s.Skipped.Load(),
		Rejected:     s.Rejected.Load(),
		Rendered:     s.Rendered.Load(),
		RenderErrors: s.RenderErrors.Load(),
	}
}
