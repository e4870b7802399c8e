package query

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FetchFunc produces the data for a query. It may fail with any error; the
// error is stored on the entry as returned.
type FetchFunc func(ctx context.Context) (any, error)

// FetchOption configures a single Fetch call.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	force bool
}

// Force starts a new fetch even when one is already in flight for the key.
// Results are applied in completion order: whichever fetch finishes last
// determines the cached data.
func Force() FetchOption {
	return func(o *fetchOptions) { o.force = true }
}

// Executor runs fetch functions and writes their results to a Store.
// At most one fetch per key is outstanding unless Force is used.
type Executor struct {
	store  *Store
	ctx    context.Context
	cfg    Config
	tracer trace.Tracer
	logger *log.Logger
	now    func() time.Time
}

// Fetch requests data for key. If the entry already owns an in-flight fetch,
// that flight is returned and fn is not called. Otherwise the entry is marked
// fetching and fn runs on its own goroutine under the executor's root
// context, so callers going away never cancel it.
func (x *Executor) Fetch(key Key, fn FetchFunc, opts ...FetchOption) *Flight {
	var o fetchOptions
	for _, opt := range opts {
		opt(&o)
	}

	var (
		f      *Flight
		leader bool
	)
	x.store.Upsert(key, func(cur Entry, _ bool) Entry {
		if cur.flight != nil && !o.force {
			f = cur.flight
			return cur
		}
		f = newFlight()
		leader = true
		cur.flight = f
		cur.IsFetching = true
		if !cur.HasData() {
			cur.Status = StatusLoading
		}
		return cur
	})

	if leader {
		x.logger.Printf("query: fetch %s", key)
		go x.run(key, fn, f)
	}
	return f
}

func (x *Executor) run(key Key, fn FetchFunc, f *Flight) {
	data, err := x.traced(key, fn)
	x.settle(key, f, data, err)
	f.finish(data, err)
}

// traced runs the fetch with retries inside a query.fetch span.
func (x *Executor) traced(key Key, fn FetchFunc) (any, error) {
	ctx, span := x.tracer.Start(x.ctx, "query.fetch",
		trace.WithAttributes(attribute.String("query.key", key.String())))
	defer span.End()

	data, attempts, err := x.attempt(ctx, key, fn)
	span.SetAttributes(attribute.Int("query.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		x.logger.Printf("query: fetch %s failed after %d attempt(s): %v", key, attempts, err)
	}
	return data, err
}

// attempt calls fn until it succeeds or the retry policy is exhausted.
func (x *Executor) attempt(ctx context.Context, key Key, fn FetchFunc) (any, int, error) {
	maxAttempts := x.cfg.Retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	delay := x.cfg.Retry.Delay

	for n := 1; ; n++ {
		data, err := x.call(ctx, fn)
		if err == nil {
			return data, n, nil
		}
		if n >= maxAttempts || ctx.Err() != nil {
			return nil, n, err
		}

		x.logger.Printf("query: fetch %s attempt %d/%d: %v", key, n, maxAttempts, err)
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return nil, n, err
			}
		}
		if x.cfg.Retry.BackoffFactor >= 1 {
			delay = time.Duration(float64(delay) * x.cfg.Retry.BackoffFactor)
		}
	}
}

// call runs one attempt bounded by the fetch timeout.
func (x *Executor) call(ctx context.Context, fn FetchFunc) (data any, err error) {
	if x.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.cfg.FetchTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("%w: %v", ErrFetchPanicked, r)
		}
	}()
	return fn(ctx)
}

// settle applies a completed fetch to the entry. Results from superseded
// flights are still applied (last completion wins) but only the entry's
// current flight clears IsFetching.
func (x *Executor) settle(key Key, f *Flight, data any, err error) {
	now := x.now()
	x.store.Upsert(key, func(cur Entry, _ bool) Entry {
		if cur.flight == f {
			cur.flight = nil
			cur.IsFetching = false
		}
		if err != nil {
			cur.Err = err
			cur.ErrorUpdatedAt = now
			cur.FailureCount++
			if !cur.HasData() {
				cur.Status = StatusError
			}
			return cur
		}
		cur.Data = data
		cur.Err = nil
		cur.FailureCount = 0
		cur.UpdatedAt = now
		cur.Status = StatusSuccess
		return cur
	})
}
