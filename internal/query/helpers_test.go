package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

// stubFetcher counts invocations and returns scripted results.
// When gate is non-nil each call blocks until a value is sent on it.
type stubFetcher struct {
	calls atomic.Int32
	gate  chan struct{}

	mu      sync.Mutex
	results []stubResult
}

type stubResult struct {
	data any
	err  error
}

func newStubFetcher(results ...stubResult) *stubFetcher {
	return &stubFetcher{results: results}
}

func (f *stubFetcher) fetch(ctx context.Context) (any, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return nil, errors.New("stubFetcher: no scripted result")
	}
	r := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return r.data, r.err
}

func newTestClient(t *testing.T, mutate func(*Config), opts ...ClientOption) *Client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := DefaultConfig()
	cfg.GCTime = 0
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(ctx, append([]ClientOption{WithConfig(cfg)}, opts...)...)
}

// waitFlight waits for f to complete, failing the test after two seconds.
func waitFlight(t *testing.T, f *Flight) (any, error) {
	t.Helper()
	if f == nil {
		t.Fatal("flight is nil")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := f.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		t.Fatal("timed out waiting for flight")
	}
	return data, err
}

// waitFor polls cond until it holds, failing the test after two seconds.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// recorder collects results delivered to an Observer.
type recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *recorder) OnQueryUpdate(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) snapshot() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}
