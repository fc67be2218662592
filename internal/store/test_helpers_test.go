package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/touchpointhq/journeysync/internal/journey"
)

// createTestStore creates a fresh on-disk store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestJourney creates a pending journey with one message step.
func createTestJourney(id string) journey.Journey {
	return journey.Journey{
		ID:           id,
		OwnerID:      "acme",
		Name:         "Welcome sequence",
		Status:       journey.StatusApproved,
		Version:      1,
		LastModified: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		SyncStatus:   journey.SyncPending,
		Steps: []journey.Step{
			{
				ID:        id + "-s1",
				Order:     1,
				Name:      "Welcome email",
				Kind:      journey.StepMessage,
				DelayUnit: journey.DelayMinutes,
				Message:   &journey.MessagePayload{Subject: "Welcome!", Body: "Hello"},
			},
		},
	}
}

// createTestHistoryEntry creates a successful create entry.
func createTestHistoryEntry(id, journeyID string, createdAt time.Time) journey.HistoryEntry {
	return journey.HistoryEntry{
		ID:         id,
		JourneyID:  journeyID,
		Operation:  journey.OpCreate,
		Outcome:    journey.OutcomeSuccess,
		RemoteID:   "wf-1",
		DurationMs: 42,
		CreatedAt:  createdAt,
	}
}
