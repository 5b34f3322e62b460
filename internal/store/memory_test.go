package store

import (
	"testing"
	"time"

	"github.com/mjdav02/shiftwatch/internal/model"
)

func TestMemoryStore_MarkAndHas(t *testing.T) {
	s := NewMemoryStore()

	if seen, _ := s.HasSeen("JOB-1"); seen {
		t.Error("fresh store should not know JOB-1")
	}
	if err := s.MarkSeen("JOB-1", model.SeenMeta{}); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}
	if seen, _ := s.HasSeen("JOB-1"); !seen {
		t.Error("expected HasSeen true after MarkSeen")
	}
}

func TestMemoryStore_MarkSeenIdempotent(t *testing.T) {
	s := NewMemoryStore()

	s.MarkSeen("JOB-1", model.SeenMeta{})
	firstSeen := s.seen["JOB-1"]
	time.Sleep(time.Millisecond)
	s.MarkSeen("JOB-1", model.SeenMeta{})

	if !s.seen["JOB-1"].Equal(firstSeen) {
		t.Error("re-marking should not reset the first-seen time")
	}
}

func TestMemoryStore_Cleanup(t *testing.T) {
	s := NewMemoryStore()
	s.MarkSeen("JOB-old", model.SeenMeta{})
	s.seen["JOB-old"] = time.Now().Add(-2 * time.Hour)
	s.MarkSeen("JOB-new", model.SeenMeta{})

	if err := s.Cleanup(time.Hour); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	if seen, _ := s.HasSeen("JOB-old"); seen {
		t.Error("expected old entry swept")
	}
	if seen, _ := s.HasSeen("JOB-new"); !seen {
		t.Error("expected recent entry kept")
	}
}
