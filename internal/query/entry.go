package query

import "time"

// Status is the lifecycle state of a cache entry.
type Status string

const (
	StatusIdle    Status = "idle"    // Entry exists but was never fetched.
	StatusLoading Status = "loading" // First fetch in flight, no data yet.
	StatusSuccess Status = "success" // Data available (possibly being refreshed).
	StatusError   Status = "error"   // Last fetch failed and there is no data.
)

// Entry is a snapshot of the cached state for one key.
type Entry struct {
	Key            Key
	Data           any
	Err            error
	Status         Status
	IsFetching     bool
	UpdatedAt      time.Time // Last successful fetch; zero when there is no data.
	ErrorUpdatedAt time.Time
	FailureCount   int
	Subscribers    int

	flight *Flight
}

// HasData reports whether the entry holds a successfully fetched value.
func (e Entry) HasData() bool {
	return !e.UpdatedAt.IsZero()
}

// IsStale reports whether the entry's data is older than staleTime at now.
// Entries without data are always stale.
func (e Entry) IsStale(staleTime time.Duration, now time.Time) bool {
	if !e.HasData() {
		return true
	}
	return now.Sub(e.UpdatedAt) >= staleTime
}
