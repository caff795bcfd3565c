package enrichment

import "sync"

// KeyMutex provides one mutual-exclusion lock per incident identity,
// created lazily on first use. Entries are reference-counted and evicted
// when the last holder or waiter releases, so the map only ever tracks
// incidents with in-flight work.
type KeyMutex struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyMutex creates an empty lock manager.
func NewKeyMutex() *KeyMutex {
	return &KeyMutex{entries: make(map[int64]*lockEntry)}
}

// Lock acquires the lock for the given incident identity, blocking until
// it is available. Critical sections for the same identity execute one at
// a time; different identities never block each other.
func (k *KeyMutex) Lock(id int64) {
	k.mu.Lock()
	e, ok := k.entries[id]
	if !ok {
		e = &lockEntry{}
		k.entries[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the lock for the given incident identity. Unlocking an
// identity that is not locked panics, matching sync.Mutex semantics.
func (k *KeyMutex) Unlock(id int64) {
	k.mu.Lock()
	e, ok := k.entries[id]
	if !ok {
		k.mu.Unlock()
		panic("enrichment: unlock of unlocked incident lock")
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, id)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// Size returns the number of tracked identities. Used by tests to verify
// eviction.
func (k *KeyMutex) Size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
