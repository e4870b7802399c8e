package query

import (
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Listener is invoked with the updated entry after every mutation of the key
// it was registered for.
type Listener func(Entry)

// Store holds one Entry per distinct key and notifies listeners on change.
// It is safe for concurrent use.
type Store struct {
	// writeMu serializes Upsert so that listener notifications for
	// successive mutations are delivered in order.
	writeMu sync.Mutex

	mu      sync.RWMutex
	entries map[string]*record
	nextID  uint64

	// idle schedules removal of entries nobody subscribes to.
	// Nil when eviction is disabled.
	idle   *gocache.Cache
	gcTime time.Duration
}

type record struct {
	entry     Entry
	listeners []listenerSlot
}

type listenerSlot struct {
	id uint64
	fn Listener
}

// NewStore creates an empty store. Entries without subscribers are removed
// gcTime after the last subscriber leaves; gcTime <= 0 keeps them forever.
func NewStore(gcTime time.Duration) *Store {
	s := &Store{
		entries: make(map[string]*record),
		gcTime:  gcTime,
	}
	if gcTime > 0 {
		cleanup := gcTime / 2
		if cleanup <= 0 {
			cleanup = gcTime
		}
		s.idle = gocache.New(gcTime, cleanup)
		s.idle.OnEvicted(func(id string, _ any) {
			s.evict(id)
		})
	}
	return s
}

// Get returns a snapshot of the entry for key. It never triggers a fetch.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.entries[key.String()]
	if !ok {
		return Entry{}, false
	}
	return rec.entry, true
}

// Upsert creates or updates the entry for key by applying fn to the current
// entry. exists is false when fn receives a fresh idle entry. Every listener
// registered for key is called with the result, in subscription order, before
// Upsert returns. Listeners must not call Upsert.
//
// fn owns the entry contents; Key and Subscribers are maintained by the store
// and any changes fn makes to them are discarded.
func (s *Store) Upsert(key Key, fn func(cur Entry, exists bool) Entry) Entry {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := key.String()

	s.mu.Lock()
	rec, exists := s.entries[id]
	if !exists {
		rec = &record{entry: Entry{Key: key.Clone(), Status: StatusIdle}}
		s.entries[id] = rec
	}
	cur := rec.entry
	next := fn(cur, exists)
	next.Key = cur.Key
	next.Subscribers = cur.Subscribers
	rec.entry = next
	listeners := append([]listenerSlot(nil), rec.listeners...)
	unwatched := next.Subscribers == 0
	s.mu.Unlock()

	if !exists && unwatched {
		s.scheduleEviction(id)
	}

	for _, l := range listeners {
		l.fn(next)
	}
	return next
}

// Subscribe registers fn for mutations of key, creating an idle entry when
// none exists. The returned function removes the registration; calling it
// more than once has no further effect.
func (s *Store) Subscribe(key Key, fn Listener) (unsubscribe func()) {
	id := key.String()

	s.mu.Lock()
	rec, ok := s.entries[id]
	if !ok {
		rec = &record{entry: Entry{Key: key.Clone(), Status: StatusIdle}}
		s.entries[id] = rec
	}
	s.nextID++
	slotID := s.nextID
	rec.listeners = append(rec.listeners, listenerSlot{id: slotID, fn: fn})
	rec.entry.Subscribers++
	s.mu.Unlock()

	s.cancelEviction(id)

	var once sync.Once
	return func() {
		once.Do(func() {
			if s.removeListener(id, slotID) == 0 {
				s.scheduleEviction(id)
			}
		})
	}
}

// Keys returns the canonical form of every cached key, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for id := range s.entries {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// removeListener drops the listener slot and returns the remaining
// subscriber count for the entry.
func (s *Store) removeListener(id string, slotID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[id]
	if !ok {
		return 0
	}
	for i, l := range rec.listeners {
		if l.id == slotID {
			rec.listeners = append(rec.listeners[:i], rec.listeners[i+1:]...)
			rec.entry.Subscribers--
			break
		}
	}
	return rec.entry.Subscribers
}

func (s *Store) scheduleEviction(id string) {
	if s.idle == nil {
		return
	}
	s.idle.Set(id, struct{}{}, s.gcTime)
}

// cancelEviction must be called without s.mu held: go-cache runs the
// eviction callback synchronously on Delete.
func (s *Store) cancelEviction(id string) {
	if s.idle == nil {
		return
	}
	s.idle.Delete(id)
}

// evict removes an idle entry. Entries that gained a subscriber since the
// eviction was scheduled are kept; entries with a fetch in flight are
// rescheduled.
func (s *Store) evict(id string) {
	s.mu.Lock()
	rec, ok := s.entries[id]
	if !ok || rec.entry.Subscribers > 0 {
		s.mu.Unlock()
		return
	}
	if rec.entry.IsFetching {
		s.mu.Unlock()
		s.scheduleEviction(id)
		return
	}
	delete(s.entries, id)
	s.mu.Unlock()
}
