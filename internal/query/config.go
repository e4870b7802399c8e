package query

import "time"

// Config holds cache-wide defaults.
type Config struct {
	// StaleTime is how long fetched data counts as fresh. A subscription that
	// mounts on fresh data does not refetch. Zero means data is stale
	// immediately, so every mount refreshes in the background.
	StaleTime time.Duration

	// GCTime is how long an entry without subscribers stays cached.
	// Zero or negative disables eviction.
	GCTime time.Duration

	// FetchTimeout bounds each fetch attempt. Zero means no timeout.
	FetchTimeout time.Duration

	Retry RetryPolicy
}

// RetryPolicy controls how failed fetches are retried.
type RetryPolicy struct {
	MaxAttempts   int           // Total attempts including the first; values < 1 mean 1.
	Delay         time.Duration // Wait before the second attempt.
	BackoffFactor float64       // Delay multiplier per attempt; 0 keeps the delay constant.
}

// DefaultConfig returns the library defaults: always-stale data, five
// minutes of idle retention, a ten second fetch timeout and no retries.
func DefaultConfig() Config {
	return Config{
		StaleTime:    0,
		GCTime:       5 * time.Minute,
		FetchTimeout: 10 * time.Second,
		Retry:        RetryPolicy{MaxAttempts: 1},
	}
}
