package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/touchpointhq/journeysync/internal/conflict"
)

func createTestConflict(id, journeyID string, policy conflict.Resolution) conflict.Conflict {
	return conflict.Conflict{
		ID:         id,
		JourneyID:  journeyID,
		Type:       conflict.TypeExternalModification,
		Severity:   conflict.SeverityHigh,
		Policy:     policy,
		Message:    "remote modified after last sync",
		Details:    map[string]string{"remote_updated_at": "2026-03-01T11:30:00Z"},
		DetectedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRegister_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c := createTestConflict("c-1", "jny-1", conflict.ResolutionManual)
	if err := s.Register(ctx, c); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	got, err := s.ListFor(ctx, "jny-1")
	if err != nil {
		t.Fatalf("ListFor() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("conflicts length = %d, expected 1", len(got))
	}
	if got[0].Type != conflict.TypeExternalModification || got[0].Severity != conflict.SeverityHigh {
		t.Errorf("conflict classification mismatch: %+v", got[0])
	}
	if got[0].Details["remote_updated_at"] != "2026-03-01T11:30:00Z" {
		t.Errorf("details did not survive the round trip: %+v", got[0].Details)
	}
	if got[0].ResolvedAt != nil {
		t.Error("fresh conflict should be unresolved")
	}
}

func TestRegister_DuplicateIDIgnored(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c := createTestConflict("c-1", "jny-1", conflict.ResolutionManual)
	if err := s.Register(ctx, c); err != nil {
		t.Fatalf("first Register() failed: %v", err)
	}
	if err := s.Register(ctx, c); err != nil {
		t.Fatalf("duplicate Register() failed: %v", err)
	}

	got, err := s.ListFor(ctx, "jny-1")
	if err != nil {
		t.Fatalf("ListFor() failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("conflicts length = %d, expected 1 after duplicate register", len(got))
	}
}

func TestIsBlocking_ManualPolicyOnly(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Register(ctx, createTestConflict("c-1", "jny-1", conflict.ResolutionManual)); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := s.Register(ctx, createTestConflict("c-2", "jny-2", conflict.ResolutionAutoOverwrite)); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	blocking, err := s.IsBlocking(ctx, "jny-1")
	if err != nil {
		t.Fatalf("IsBlocking() failed: %v", err)
	}
	if !blocking {
		t.Error("manual-policy conflict should block")
	}

	blocking, err = s.IsBlocking(ctx, "jny-2")
	if err != nil {
		t.Fatalf("IsBlocking() failed: %v", err)
	}
	if blocking {
		t.Error("auto-policy conflict should not block")
	}
}

func TestResolve_UnblocksAndKeepsHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Register(ctx, createTestConflict("c-1", "jny-1", conflict.ResolutionManual)); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	if err := s.Resolve(ctx, "c-1", conflict.ResolutionAutoOverwrite); err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	blocking, err := s.IsBlocking(ctx, "jny-1")
	if err != nil {
		t.Fatalf("IsBlocking() failed: %v", err)
	}
	if blocking {
		t.Error("resolved conflict should not block")
	}

	got, err := s.ListFor(ctx, "jny-1")
	if err != nil {
		t.Fatalf("ListFor() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("conflicts length = %d, expected resolved row kept", len(got))
	}
	if got[0].ResolvedAt == nil {
		t.Error("ResolvedAt not stamped")
	}
	if got[0].Policy != conflict.ResolutionAutoOverwrite {
		t.Errorf("Policy = %q, expected auto_overwrite", got[0].Policy)
	}
}

func TestResolve_UnknownID(t *testing.T) {
	s := createTestStore(t)

	err := s.Resolve(context.Background(), "nope", conflict.ResolutionManual)
	if !errors.Is(err, conflict.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUnresolved_AcrossJourneys(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Register(ctx, createTestConflict("c-1", "jny-1", conflict.ResolutionManual)); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := s.Register(ctx, createTestConflict("c-2", "jny-2", conflict.ResolutionMerge)); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := s.Resolve(ctx, "c-2", conflict.ResolutionMerge); err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	open, err := s.Unresolved(ctx)
	if err != nil {
		t.Fatalf("Unresolved() failed: %v", err)
	}
	if len(open) != 1 || open[0].ID != "c-1" {
		t.Errorf("unresolved = %+v, expected only c-1", open)
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/test.db"

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s1.Register(ctx, createTestConflict("c-1", "jny-1", conflict.ResolutionManual)); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	blocking, err := s2.IsBlocking(ctx, "jny-1")
	if err != nil {
		t.Fatalf("IsBlocking() failed: %v", err)
	}
	if !blocking {
		t.Error("conflict did not survive process restart")
	}
}
