package crawler

import (
	"net/url"
	"sync"
)

// Task is one unit of pending work: a normalized URL and the depth of
// the page that discovered it (seed = 0).
type Task struct {
	URL   *url.URL
	Depth int
}

// Frontier combines the set of URLs ever admitted with the queue of
// tasks awaiting dispatch. TryAdmit is the single synchronization
// point preventing duplicate work: a URL enters the queue at most once
// for the lifetime of a run, no matter how many workers race on it.
//
// Workers park on a condition variable instead of polling; a waiter
// wakes when a task arrives, the frontier drains, or the run is
// cancelled.
type Frontier struct {
	mu       sync.Mutex
	cond     *sync.Cond
	seen     map[string]struct{}
	queue    []Task
	inflight int
	closed   bool
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	f := &Frontier{seen: make(map[string]struct{})}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// TryAdmit atomically checks membership and, if the URL was never seen,
// records it and enqueues a task. Returns whether admission happened.
func (f *Frontier) TryAdmit(u *url.URL, depth int) bool {
	if u == nil {
		return false
	}
	key := Key(u)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	if _, ok := f.seen[key]; ok {
		return false
	}
	f.seen[key] = struct{}{}
	f.queue = append(f.queue, Task{URL: u, Depth: depth})
	f.cond.Signal()
	return true
}

// Take blocks until a task is available, returning it and true. It
// returns false once the frontier is drained (queue empty with no task
// in flight) or closed; workers treat false as the shutdown signal.
// Every successful Take must be paired with a Done call.
func (f *Frontier) Take() (Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for !f.closed && len(f.queue) == 0 && f.inflight > 0 {
		f.cond.Wait()
	}
	if f.closed || len(f.queue) == 0 {
		return Task{}, false
	}
	task := f.queue[0]
	f.queue = f.queue[1:]
	f.inflight++
	return task, true
}

// Done marks one in-flight task as finished. When the last in-flight
// task completes with an empty queue, all parked workers are released.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
	if f.inflight == 0 && len(f.queue) == 0 {
		f.cond.Broadcast()
	}
}

// Drained reports whether no further work exists or can be produced.
// A momentarily empty queue is not drained while a worker is mid-task,
// because that worker may still admit new URLs.
func (f *Frontier) Drained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) == 0 && f.inflight == 0
}

// Close stops admission and releases all parked workers. Used for
// run-level cancellation.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
}

// SeenCount returns the number of URLs ever admitted.
func (f *Frontier) SeenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}
