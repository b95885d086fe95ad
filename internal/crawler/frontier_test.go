package crawler

import (
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := Normalize(raw, nil)
	if err != nil {
		t.Fatalf("normalize %q: %v", raw, err)
	}
	return u
}

func TestFrontierAdmitOnce(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	u := mustURL(t, "https://site.test/page")

	if !f.TryAdmit(u, 0) {
		t.Fatal("first admission should succeed")
	}
	if f.TryAdmit(u, 0) {
		t.Fatal("second admission of the same URL should fail")
	}
	if f.TryAdmit(u, 1) {
		t.Fatal("re-admission at a different depth should still fail")
	}
	if got := f.SeenCount(); got != 1 {
		t.Fatalf("seen count = %d, want 1", got)
	}
}

func TestFrontierConcurrentAdmission(t *testing.T) {
	t.Parallel()

	const goroutines = 64
	f := NewFrontier()
	u := mustURL(t, "https://site.test/contested")

	var admitted atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if f.TryAdmit(u, 0) {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := admitted.Load(); got != 1 {
		t.Fatalf("admitted %d times, want exactly 1", got)
	}

	task, ok := f.Take()
	if !ok {
		t.Fatal("expected one queued task")
	}
	if Key(task.URL) != Key(u) {
		t.Fatalf("took %q, want %q", Key(task.URL), Key(u))
	}
	f.Done()
	if _, ok := f.Take(); ok {
		t.Fatal("queue should hold exactly one task")
	}
}

func TestFrontierDrainedSemantics(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	f.TryAdmit(mustURL(t, "https://site.test/"), 0)

	if f.Drained() {
		t.Fatal("frontier with a queued task is not drained")
	}

	_, ok := f.Take()
	if !ok {
		t.Fatal("expected to take the queued task")
	}
	// Queue is empty but a worker is mid-task: still not drained,
	// that worker may enqueue more.
	if f.Drained() {
		t.Fatal("frontier with an in-flight task is not drained")
	}

	f.TryAdmit(mustURL(t, "https://site.test/child"), 1)
	f.Done()

	if f.Drained() {
		t.Fatal("frontier with a re-filled queue is not drained")
	}
	if _, ok := f.Take(); !ok {
		t.Fatal("expected the child task")
	}
	f.Done()

	if !f.Drained() {
		t.Fatal("frontier should be drained")
	}
	if _, ok := f.Take(); ok {
		t.Fatal("drained frontier should not yield tasks")
	}
}

func TestFrontierTakeParksUntilWork(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	f.TryAdmit(mustURL(t, "https://site.test/"), 0)

	if _, ok := f.Take(); !ok {
		t.Fatal("expected seed task")
	}

	got := make(chan bool, 1)
	go func() {
		// Parks: queue empty, one task in flight.
		_, ok := f.Take()
		got <- ok
	}()

	f.TryAdmit(mustURL(t, "https://site.test/next"), 1)
	if ok := <-got; !ok {
		t.Fatal("parked Take should receive the new task")
	}
	f.Done()
	f.Done()
}

func TestFrontierCloseReleasesWaiters(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	f.TryAdmit(mustURL(t, "https://site.test/"), 0)
	if _, ok := f.Take(); !ok {
		t.Fatal("expected seed task")
	}

	const waiters = 4
	results := make(chan bool, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			_, ok := f.Take()
			results <- ok
		}()
	}

	f.Close()
	for i := 0; i < waiters; i++ {
		if ok := <-results; ok {
			t.Fatal("Take after Close should report no work")
		}
	}

	if f.TryAdmit(mustURL(t, "https://site.test/late"), 0) {
		t.Fatal("admission after Close should fail")
	}
}

func TestFrontierManyTasksSingleConsumer(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	const n = 200
	for i := 0; i < n; i++ {
		f.TryAdmit(mustURL(t, fmt.Sprintf("https://site.test/p%d", i)), 0)
	}

	seen := make(map[string]struct{}, n)
	for {
		task, ok := f.Take()
		if !ok {
			break
		}
		key := Key(task.URL)
		if _, dup := seen[key]; dup {
			t.Fatalf("task %q observed twice", key)
		}
		seen[key] = struct{}{}
		f.Done()
	}
	if len(seen) != n {
		t.Fatalf("consumed %d tasks, want %d", len(seen), n)
	}
}
