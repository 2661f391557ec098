// Package keystore provides a reference, in-memory implementation of
// model.KeyStore. Production callers typically back the interface with
// whatever already holds their key material (a config reload, a secrets
// manager fetch); MemoryKeyStore exists for tests, benchmarks and the
// bundled admin server.
package keystore

import (
	"sync"
	"time"

	"github.com/kenneth/uid2-client-go/internal/model"
)

// MemoryKeyStore holds a snapshot of keys behind a RWMutex, replaced
// wholesale on each Refresh. It is safe for concurrent use.
type MemoryKeyStore struct {
	mu          sync.RWMutex
	byID        map[int64]model.Key
	bySite      map[int32][]model.Key
	refreshedAt time.Time
	maxStale    time.Duration
}

// NewMemoryKeyStore returns an empty store. IsValid reports false until the
// first Refresh. maxStale is the window IsValid enforces between now and
// the last Refresh; zero disables the staleness check.
func NewMemoryKeyStore(maxStale time.Duration) *MemoryKeyStore {
	return &MemoryKeyStore{
		byID:     make(map[int64]model.Key),
		bySite:   make(map[int32][]model.Key),
		maxStale: maxStale,
	}
}

// Refresh replaces the entire key snapshot and records refreshedAt as now.
func (s *MemoryKeyStore) Refresh(keys []model.Key, now time.Time) {
	byID := make(map[int64]model.Key, len(keys))
	bySite := make(map[int32][]model.Key)
	for _, k := range keys {
		byID[k.ID] = k
		bySite[k.SiteID] = append(bySite[k.SiteID], k)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = byID
	s.bySite = bySite
	s.refreshedAt = now
}

// TryGetKey implements model.KeyStore.
func (s *MemoryKeyStore) TryGetKey(id int64) (model.Key, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.byID[id]
	return k, ok
}

// TryGetActiveSiteKey implements model.KeyStore: among siteID's keys, it
// returns the one active at now with the latest Created timestamp, the
// same "most recent active key wins" rule the UID2 operator applies when a
// site has more than one live key.
func (s *MemoryKeyStore) TryGetActiveSiteKey(siteID int32, now time.Time) (model.Key, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best model.Key
	found := false
	for _, k := range s.bySite[siteID] {
		if !k.IsActive(now) {
			continue
		}
		if !found || k.Created.After(best.Created) {
			best = k
			found = true
		}
	}
	return best, found
}

// IsValid implements model.KeyStore: true iff at least one Refresh has
// happened and, when maxStale is nonzero, now is within maxStale of the
// last Refresh.
func (s *MemoryKeyStore) IsValid(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.refreshedAt.IsZero() {
		return false
	}
	if s.maxStale == 0 {
		return true
	}
	return now.Sub(s.refreshedAt) <= s.maxStale
}
