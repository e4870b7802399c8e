package query

import (
	"sync"
	"sync/atomic"
	"time"
)

// Result is the read model a subscription exposes to its consumer.
type Result struct {
	Status     Status
	Data       any
	Err        error
	IsFetching bool
	UpdatedAt  time.Time
	Enabled    bool
}

// IsLoading reports whether there is nothing to show yet: the query is
// disabled, idle, or fetching for the first time.
func (r Result) IsLoading() bool {
	return !r.Enabled || r.Status == StatusIdle || r.Status == StatusLoading
}

// DataAs returns r.Data as a T. ok is false when there is no data or it has
// a different type.
func DataAs[T any](r Result) (v T, ok bool) {
	v, ok = r.Data.(T)
	return v, ok
}

// Observer is notified whenever a watched entry changes.
type Observer interface {
	OnQueryUpdate(Result)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Result)

// OnQueryUpdate implements Observer.
func (f ObserverFunc) OnQueryUpdate(r Result) {
	if f == nil {
		return
	}
	f(r)
}

// Option configures a Subscription.
type Option func(*subOptions)

type subOptions struct {
	enabled   bool
	staleTime time.Duration
}

// WithEnabled gates fetching. A disabled subscription never fetches and
// leaves the entry untouched.
func WithEnabled(enabled bool) Option {
	return func(o *subOptions) { o.enabled = enabled }
}

// WithStaleTime overrides the client's stale time for this subscription.
func WithStaleTime(d time.Duration) Option {
	return func(o *subOptions) { o.staleTime = d }
}

// Subscription binds a key and fetch function to the cache.
type Subscription struct {
	client    *Client
	key       Key
	fetch     FetchFunc
	staleTime time.Duration
	enabled   atomic.Bool

	closeOnce   sync.Once
	unsubscribe func()
}

// Watch activates a subscription for key. The observer (which may be nil)
// receives a Result on every change to the entry. Unless disabled or the
// cached data is still fresh, a fetch is requested immediately; an existing
// in-flight fetch for the key is shared.
func (c *Client) Watch(key Key, fetch FetchFunc, obs Observer, opts ...Option) *Subscription {
	o := subOptions{enabled: true, staleTime: c.cfg.StaleTime}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Subscription{
		client:    c,
		key:       key.Clone(),
		fetch:     fetch,
		staleTime: o.staleTime,
	}
	s.enabled.Store(o.enabled)

	s.unsubscribe = c.store.Subscribe(s.key, func(e Entry) {
		if obs != nil {
			obs.OnQueryUpdate(s.resultFrom(e, true))
		}
	})

	if o.enabled {
		s.fetchIfStale()
	}
	return s
}

// Key returns the subscription's key.
func (s *Subscription) Key() Key {
	return s.key.Clone()
}

// Result returns the current read model.
func (s *Subscription) Result() Result {
	e, ok := s.client.store.Get(s.key)
	return s.resultFrom(e, ok)
}

// Enabled reports whether the subscription may fetch.
func (s *Subscription) Enabled() bool {
	return s.enabled.Load()
}

// SetEnabled changes the gate. Enabling a disabled subscription behaves like
// a fresh mount: it fetches unless the cached data is still fresh.
func (s *Subscription) SetEnabled(enabled bool) {
	was := s.enabled.Swap(enabled)
	if enabled && !was {
		s.fetchIfStale()
	}
}

// Refetch revalidates the entry regardless of staleness. Cached data stays
// visible while the refresh runs. It returns nil when the subscription is
// disabled.
func (s *Subscription) Refetch(opts ...FetchOption) *Flight {
	if !s.enabled.Load() {
		return nil
	}
	return s.client.exec.Fetch(s.key, s.fetch, opts...)
}

// Close deactivates the subscription. An in-flight fetch keeps running and
// its result is still cached.
func (s *Subscription) Close() {
	s.closeOnce.Do(s.unsubscribe)
}

func (s *Subscription) fetchIfStale() {
	if s.client.isStale(s.key, s.staleTime) {
		s.client.exec.Fetch(s.key, s.fetch)
	}
}

func (s *Subscription) resultFrom(e Entry, ok bool) Result {
	r := Result{Status: StatusIdle, Enabled: s.enabled.Load()}
	if !ok {
		return r
	}
	r.Status = e.Status
	r.Data = e.Data
	r.Err = e.Err
	r.IsFetching = e.IsFetching
	r.UpdatedAt = e.UpdatedAt
	return r
}
