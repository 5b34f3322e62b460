package store

import (
	"time"

	"github.com/mjdav02/shiftwatch/internal/model"
)

// NopStore is used in check mode. It never marks listings as seen, so every
// listing appears new on each poll and nothing is persisted.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) HasSeen(listingID string) (bool, error)           { return false, nil }
func (s *NopStore) MarkSeen(listingID string, _ model.SeenMeta) error { return nil }
func (s *NopStore) Cleanup(olderThan time.Duration) error             { return nil }
