package query

import (
	"encoding/json"
	"fmt"
)

// Key identifies a logical query. Two keys are equal when their canonical
// JSON forms are equal, so NewKey("post", 1) built twice resolves to the
// same cache entry.
type Key []any

// NewKey returns a key holding a copy of parts.
func NewKey(parts ...any) Key {
	return append(Key(nil), parts...)
}

// Clone returns a copy of k that shares no backing array with it.
func (k Key) Clone() Key {
	return append(Key(nil), k...)
}

// String returns the canonical serialization of k.
// Parts that cannot be encoded as JSON fall back to their %v form.
func (k Key) String() string {
	b, err := json.Marshal([]any(k))
	if err != nil {
		return fmt.Sprintf("%v", []any(k))
	}
	return string(b)
}

// Equal reports whether k and other are structurally equal.
func (k Key) Equal(other Key) bool {
	return k.String() == other.String()
}
