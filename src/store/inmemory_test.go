package store

import (
	"context"
	"testing"
	"time"

	"scanner111/src/pipeline"
)

func TestInMemoryStore_StoreAndRecent(t *testing.T) {
	s := NewInMemoryStore(10)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		summary := ScanSummary{
			LogPath:       "crash-" + string(rune('a'+i)) + ".log",
			ScannedAt:     base.Add(time.Duration(i) * time.Second),
			Status:        pipeline.Completed,
			SeverityLevel: "Warning",
			FindingsCount: i,
		}
		if err := s.Store(ctx, summary); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d entries, want 2", len(recent))
	}
	if recent[0].LogPath != "crash-c.log" {
		t.Errorf("Recent()[0].LogPath = %q, want crash-c.log (most recent first)", recent[0].LogPath)
	}
}

func TestInMemoryStore_EvictsOldestWhenFull(t *testing.T) {
	s := NewInMemoryStore(2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.Store(ctx, ScanSummary{LogPath: string(rune('a' + i))})
	}

	recent, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent() returned %d entries, want 2 (capacity bound)", len(recent))
	}
	if recent[0].LogPath != "e" || recent[1].LogPath != "d" {
		t.Errorf("Recent() = %+v, want the two most recent entries in order", recent)
	}
}

func TestInMemoryStore_EmptyStoreReturnsNothing(t *testing.T) {
	s := NewInMemoryStore(10)
	recent, err := s.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("Recent() on empty store = %+v, want empty", recent)
	}
}

func TestInMemoryStore_Close(t *testing.T) {
	s := NewInMemoryStore(1)
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
