// Package harness runs YAML-defined reconciliation scenarios against the real
// sync orchestrator. Each scenario gets a fresh in-memory store, a scripted
// fake workflow engine, and deterministic clock and identity sources, so the
// same scenario produces byte-identical histories run to run.
package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/touchpointhq/journeysync/internal/conflict"
	"github.com/touchpointhq/journeysync/internal/engine"
	"github.com/touchpointhq/journeysync/internal/journey"
	"github.com/touchpointhq/journeysync/internal/remote"
	"github.com/touchpointhq/journeysync/internal/retry"
	"github.com/touchpointhq/journeysync/internal/store"
	"github.com/touchpointhq/journeysync/internal/testutil"
)

// baseTime anchors every scenario clock. Fixtures state timestamps relative
// to this instant.
var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Result captures one scenario execution.
type Result struct {
	Scenario string
	Pass     bool
	Errors   []string
	Run      *engine.RunResult
	Statuses map[string]journey.SyncStatus
}

// fakeEngine is the scripted remote.API the scenarios reconcile against.
type fakeEngine struct {
	entities    map[string]*remote.Entity
	ids         *testutil.SequenceGenerator
	rateLimited int
	rejects     bool
}

func newFakeEngine(fixture RemoteFixture) *fakeEngine {
	f := &fakeEngine{
		entities:    make(map[string]*remote.Entity),
		ids:         testutil.NewSequenceGenerator("wf"),
		rateLimited: fixture.RateLimitedCalls,
		rejects:     fixture.RejectWrites,
	}
	for _, e := range fixture.Entities {
		f.entities[e.ID] = &remote.Entity{
			ID:        e.ID,
			Name:      e.Name,
			UpdatedAt: e.UpdatedAt,
			Steps:     make([]remote.EntityStep, e.StepCount),
			Settings:  remote.Settings{RecordVersion: e.RecordVersion},
		}
	}
	return f
}

func (f *fakeEngine) writeGate() error {
	if f.rateLimited > 0 {
		f.rateLimited--
		return &retry.RateLimitError{Message: "throttled"}
	}
	if f.rejects {
		return &remote.APIError{StatusCode: 422, Message: "steps rejected"}
	}
	return nil
}

func (f *fakeEngine) FetchEntity(_ context.Context, remoteID string) (*remote.Entity, error) {
	return f.entities[remoteID], nil
}

func (f *fakeEngine) CreateEntity(_ context.Context, payload remote.Payload) (string, error) {
	if err := f.writeGate(); err != nil {
		return "", err
	}
	id := f.ids.Generate()
	f.entities[id] = &remote.Entity{ID: id, Name: payload.Name, Steps: payload.Steps, Settings: payload.Settings}
	return id, nil
}

func (f *fakeEngine) UpdateEntity(_ context.Context, remoteID string, payload remote.Payload) error {
	if err := f.writeGate(); err != nil {
		return err
	}
	f.entities[remoteID] = &remote.Entity{ID: remoteID, Name: payload.Name, Steps: payload.Steps, Settings: payload.Settings}
	return nil
}

func (f *fakeEngine) DeleteEntity(_ context.Context, remoteID string) error {
	delete(f.entities, remoteID)
	return nil
}

// Run executes a scenario and evaluates its expectations.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// frozen clock and sequential identities for reproducible output.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	for _, f := range scenario.Journeys {
		j, err := journeyFromFixture(f)
		if err != nil {
			return nil, err
		}
		if err := st.SaveJourney(ctx, j); err != nil {
			return nil, fmt.Errorf("seed journey %s: %w", j.ID, err)
		}
	}

	api := newFakeEngine(scenario.Remote)
	clock := testutil.NewFixedClock(baseTime)

	maxRetries := scenario.Options.Retries
	if maxRetries == 0 {
		maxRetries = 3
	}

	orch := engine.New(st, api, remote.DefaultMapper{},
		engine.WithRegistry(st),
		engine.WithIDGenerator(testutil.NewSequenceGenerator("h")),
		engine.WithNow(clock.Now),
		engine.WithDetector(conflict.NewDetector(
			conflict.WithIDGenerator(testutil.NewSequenceGenerator("c")),
			conflict.WithNow(clock.Now),
		)),
		engine.WithRetryPolicy(retry.New(
			retry.WithMaxRetries(maxRetries),
			retry.WithSleep(func(context.Context, time.Duration) error { return nil }),
		)),
	)

	runResult, err := orch.Run(ctx, engine.Options{
		JourneyID: scenario.Options.Record,
		OwnerID:   scenario.Options.Owner,
		DryRun:    scenario.Options.DryRun,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: run failed: %w", scenario.Name, err)
	}

	result := &Result{
		Scenario: scenario.Name,
		Run:      runResult,
		Statuses: make(map[string]journey.SyncStatus),
	}
	for _, f := range scenario.Journeys {
		j, err := st.FetchJourney(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		if j != nil {
			result.Statuses[j.ID] = j.SyncStatus
		}
	}

	result.Errors = evaluate(scenario, result)
	result.Pass = len(result.Errors) == 0
	return result, nil
}

// evaluate checks every expectation and returns all mismatches, not just the
// first.
func evaluate(scenario *Scenario, result *Result) []string {
	var errs []string
	run := result.Run
	expect := scenario.Expect

	if run.Success != expect.Success {
		errs = append(errs, fmt.Sprintf("success = %v, expected %v", run.Success, expect.Success))
	}

	wantStats := engine.Stats{
		Synced:    expect.Stats.Synced,
		Conflicts: expect.Stats.Conflicts,
		Failed:    expect.Stats.Failed,
		Created:   expect.Stats.Created,
		Updated:   expect.Stats.Updated,
		Skipped:   expect.Stats.Skipped,
	}
	if run.Stats != wantStats {
		errs = append(errs, fmt.Sprintf("stats = %+v, expected %+v", run.Stats, wantStats))
	}

	for id, want := range expect.Statuses {
		got, ok := result.Statuses[id]
		if !ok {
			errs = append(errs, fmt.Sprintf("journey %s: no final status recorded", id))
			continue
		}
		if got != journey.SyncStatus(want) {
			errs = append(errs, fmt.Sprintf("journey %s: status = %q, expected %q", id, got, want))
		}
	}

	if expect.Conflicts != nil {
		var gotTypes []string
		for _, c := range run.UnresolvedConflicts {
			gotTypes = append(gotTypes, string(c.Type))
		}
		if len(gotTypes) != len(expect.Conflicts) {
			errs = append(errs, fmt.Sprintf("conflicts = %v, expected %v", gotTypes, expect.Conflicts))
		} else {
			for i := range gotTypes {
				if gotTypes[i] != expect.Conflicts[i] {
					errs = append(errs, fmt.Sprintf("conflicts[%d] = %q, expected %q", i, gotTypes[i], expect.Conflicts[i]))
					break
				}
			}
		}
	}

	return errs
}
