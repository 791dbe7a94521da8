package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	userID   int64
	deadline time.Time // zero means no expiry
}

// MemoryStore is an in-process session cache for tests and single-binary
// deployments. Expiry is bookkept per entry and enforced lazily on Get; a
// background sweeper is unnecessary because stale entries are also skipped
// by RemoveAllForUser and reclaimable via Purge.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	byUser  map[int64]map[string]struct{}
	now     func() time.Time
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		byUser:  make(map[int64]map[string]struct{}),
		now:     time.Now,
	}
}

// Insert stores the mapping with no expiry, overwriting any prior mapping
// under the same key.
func (m *MemoryStore) Insert(_ context.Context, userID int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(userID, key, time.Time{})
	return nil
}

// InsertFor stores the mapping with an expiry.
func (m *MemoryStore) InsertFor(_ context.Context, userID int64, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(userID, key, m.now().Add(ttl))
	return nil
}

func (m *MemoryStore) put(userID int64, key string, deadline time.Time) {
	// An overwrite under a different user must detach the old index entry.
	if prev, ok := m.entries[key]; ok && prev.userID != userID {
		m.detach(prev.userID, key)
	}

	m.entries[key] = memoryEntry{userID: userID, deadline: deadline}
	if m.byUser[userID] == nil {
		m.byUser[userID] = make(map[string]struct{})
	}
	m.byUser[userID][key] = struct{}{}
}

// Get returns the live mapping for key, or ok=false when the key is
// missing or expired. An expired entry is reclaimed on the spot.
func (m *MemoryStore) Get(_ context.Context, key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return 0, false, nil
	}
	if m.expired(entry) {
		m.remove(key, entry)
		return 0, false, nil
	}

	return entry.userID, true, nil
}

// Remove deletes the mapping if present; removing an absent key is a
// no-op.
func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[key]; ok {
		m.remove(key, entry)
	}
	return nil
}

// RemoveAllForUser invalidates every session of the user.
func (m *MemoryStore) RemoveAllForUser(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.byUser[userID] {
		delete(m.entries, key)
	}
	delete(m.byUser, userID)
	return nil
}

// Purge reclaims all expired entries and returns how many were dropped.
func (m *MemoryStore) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var dropped int
	for key, entry := range m.entries {
		if m.expired(entry) {
			m.remove(key, entry)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of stored entries, expired ones included until
// they are reclaimed.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.deadline.IsZero() && m.now().After(entry.deadline)
}

func (m *MemoryStore) remove(key string, entry memoryEntry) {
	delete(m.entries, key)
	m.detach(entry.userID, key)
}

func (m *MemoryStore) detach(userID int64, key string) {
	if set, ok := m.byUser[userID]; ok {
		delete(set, key)
		if len(set) == 0 {
			delete(m.byUser, userID)
		}
	}
}
