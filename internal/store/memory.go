package store

import (
	"time"

	"github.com/mjdav02/shiftwatch/internal/model"
)

// MemoryStore is the in-memory dedup registry: scope is the process
// lifetime, nothing survives a restart.
type MemoryStore struct {
	seen map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]time.Time)}
}

func (s *MemoryStore) HasSeen(listingID string) (bool, error) {
	_, ok := s.seen[listingID]
	return ok, nil
}

// MarkSeen is idempotent: the first-seen time of an existing ID is kept.
func (s *MemoryStore) MarkSeen(listingID string, _ model.SeenMeta) error {
	if _, ok := s.seen[listingID]; !ok {
		s.seen[listingID] = time.Now()
	}
	return nil
}

func (s *MemoryStore) Cleanup(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	for id, firstSeen := range s.seen {
		if firstSeen.Before(cutoff) {
			delete(s.seen, id)
		}
	}
	return nil
}
