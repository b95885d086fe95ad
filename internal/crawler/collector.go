package crawler

import (
	"sort"
	"sync"

	"github.com/7not-nico/web2pdf/pkg/types"
)

// Collector accumulates page results from concurrent workers. Arrival
// order carries no meaning; Drain imposes the document order.
type Collector struct {
	mu      sync.Mutex
	results []types.Result
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends one result. Safe for concurrent use.
func (c *Collector) Add(r types.Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

// Len reports the number of collected results.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

// Drain returns all results sorted by (depth, url) ascending, giving
// the final document a deterministic breadth-first layout regardless
// of fetch completion order.
func (c *Collector) Drain() []types.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Result, len(c.results))
	copy(out, c.results)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return Key(out[i].URL) < Key(out[j].URL)
	})
	return out
}
