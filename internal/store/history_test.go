package store

import (
	"context"
	"testing"
	"time"

	"github.com/touchpointhq/journeysync/internal/journey"
)

func TestAppendHistory_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	entry := createTestHistoryEntry("h-1", "jny-1", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	entry.Error = "rate limited: throttled"
	entry.Outcome = journey.OutcomeFailed

	if err := s.AppendHistory(ctx, entry); err != nil {
		t.Fatalf("AppendHistory() failed: %v", err)
	}

	got, err := s.History(ctx, "jny-1")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("history length = %d, expected 1", len(got))
	}
	e := got[0]
	if e.ID != "h-1" || e.Operation != journey.OpCreate || e.Outcome != journey.OutcomeFailed {
		t.Errorf("entry identity mismatch: %+v", e)
	}
	if e.Error != "rate limited: throttled" {
		t.Errorf("Error = %q, expected preserved message", e.Error)
	}
	if e.DurationMs != 42 {
		t.Errorf("DurationMs = %d, expected 42", e.DurationMs)
	}
	if !e.CreatedAt.Equal(entry.CreatedAt) {
		t.Errorf("CreatedAt = %v, expected %v", e.CreatedAt, entry.CreatedAt)
	}
}

func TestAppendHistory_DuplicateIDIgnored(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	entry := createTestHistoryEntry("h-1", "jny-1", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if err := s.AppendHistory(ctx, entry); err != nil {
		t.Fatalf("first AppendHistory() failed: %v", err)
	}
	if err := s.AppendHistory(ctx, entry); err != nil {
		t.Fatalf("duplicate AppendHistory() failed: %v", err)
	}

	got, err := s.History(ctx, "jny-1")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("history length = %d, expected 1 after duplicate append", len(got))
	}
}

func TestHistory_NewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"h-1", "h-2", "h-3"} {
		entry := createTestHistoryEntry(id, "jny-1", base.Add(time.Duration(i)*time.Minute))
		if err := s.AppendHistory(ctx, entry); err != nil {
			t.Fatalf("AppendHistory(%s) failed: %v", id, err)
		}
	}

	got, err := s.History(ctx, "jny-1")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("history length = %d, expected 3", len(got))
	}
	if got[0].ID != "h-3" || got[2].ID != "h-1" {
		t.Errorf("history order = [%s, %s, %s], expected newest first", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestHistory_ScopedToJourney(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.AppendHistory(ctx, createTestHistoryEntry("h-1", "jny-1", at)); err != nil {
		t.Fatalf("AppendHistory() failed: %v", err)
	}
	if err := s.AppendHistory(ctx, createTestHistoryEntry("h-2", "jny-2", at)); err != nil {
		t.Fatalf("AppendHistory() failed: %v", err)
	}

	scoped, err := s.History(ctx, "jny-2")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ID != "h-2" {
		t.Errorf("scoped history = %+v, expected only h-2", scoped)
	}

	all, err := s.History(ctx, "")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("unscoped history length = %d, expected 2", len(all))
	}
}
