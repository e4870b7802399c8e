// Package query implements a stale-while-revalidate query cache.
//
// A Client owns a Store of entries keyed by structurally compared Keys and an
// Executor that runs fetch functions, deduplicating concurrent requests for
// the same key. Consumers Watch a key to receive a Result whenever its entry
// changes; cached data is served immediately while a background refresh runs.
package query

import (
	"context"
	"io"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies spans emitted by this package.
const tracerName = "github.com/smileynet/querydemo/internal/query"

// Client is the entry point to the query cache. Construct one per
// application and pass it to the components that need it.
type Client struct {
	cfg   Config
	store *Store
	exec  *Executor
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	cfg    Config
	logger *log.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// WithConfig replaces the default cache configuration.
func WithConfig(cfg Config) ClientOption {
	return func(o *clientOptions) { o.cfg = cfg }
}

// WithLogger sets the logger for fetch lifecycle messages.
func WithLogger(l *log.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = l }
}

// WithTracer sets the tracer used for fetch spans. The default comes from
// the global OpenTelemetry tracer provider.
func WithTracer(t trace.Tracer) ClientOption {
	return func(o *clientOptions) { o.tracer = t }
}

// WithClock overrides the time source used for staleness decisions.
func WithClock(now func() time.Time) ClientOption {
	return func(o *clientOptions) { o.now = now }
}

// NewClient creates a Client whose fetches run under ctx. Cancelling ctx
// aborts every outstanding and future fetch.
func NewClient(ctx context.Context, opts ...ClientOption) *Client {
	o := clientOptions{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	if o.now == nil {
		o.now = time.Now
	}

	store := NewStore(o.cfg.GCTime)
	return &Client{
		cfg:   o.cfg,
		store: store,
		exec: &Executor{
			store:  store,
			ctx:    ctx,
			cfg:    o.cfg,
			tracer: o.tracer,
			logger: o.logger,
			now:    o.now,
		},
	}
}

// Config returns the client's configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Store returns the underlying cache store.
func (c *Client) Store() *Store {
	return c.store
}

// Executor returns the underlying fetch executor.
func (c *Client) Executor() *Executor {
	return c.exec
}

// Fetch requests data for key through the executor.
func (c *Client) Fetch(key Key, fn FetchFunc, opts ...FetchOption) *Flight {
	return c.exec.Fetch(key, fn, opts...)
}

// GetQueryData returns the cached data for key without fetching.
// ok is false when the key has never been fetched successfully.
func (c *Client) GetQueryData(key Key) (data any, ok bool) {
	e, found := c.store.Get(key)
	if !found || !e.HasData() {
		return nil, false
	}
	return e.Data, true
}

// GetQueryState returns a snapshot of the entry for key without fetching.
func (c *Client) GetQueryState(key Key) (Entry, bool) {
	return c.store.Get(key)
}

// SetQueryData writes data for key as if a fetch had just succeeded.
func (c *Client) SetQueryData(key Key, data any) Entry {
	now := c.exec.now()
	return c.store.Upsert(key, func(cur Entry, _ bool) Entry {
		cur.Data = data
		cur.Err = nil
		cur.FailureCount = 0
		cur.UpdatedAt = now
		cur.Status = StatusSuccess
		return cur
	})
}

// isStale reports whether key needs a fetch under staleTime.
func (c *Client) isStale(key Key, staleTime time.Duration) bool {
	e, ok := c.store.Get(key)
	if !ok {
		return true
	}
	return e.IsStale(staleTime, c.exec.now())
}
