package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/touchpointhq/journeysync/internal/journey"
)

// snapshot is the golden-file projection of a scenario run. Volatile fields
// (timestamps, durations) are excluded so the snapshot is stable; identities
// are stable already because scenarios run with sequential generators.
type snapshot struct {
	Scenario string                        `json:"scenario"`
	Stats    snapshotStats                 `json:"stats"`
	History  []snapshotEntry               `json:"history"`
	Statuses map[string]journey.SyncStatus `json:"statuses"`
}

type snapshotStats struct {
	Synced    int `json:"synced"`
	Conflicts int `json:"conflicts"`
	Failed    int `json:"failed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
}

type snapshotEntry struct {
	ID        string `json:"id"`
	JourneyID string `json:"journey_id"`
	Operation string `json:"operation"`
	Outcome   string `json:"outcome"`
	RemoteID  string `json:"remote_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RunWithGolden executes a scenario and compares its history snapshot against
// testdata/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snap := snapshot{
		Scenario: scenario.Name,
		Stats: snapshotStats{
			Synced:    result.Run.Stats.Synced,
			Conflicts: result.Run.Stats.Conflicts,
			Failed:    result.Run.Stats.Failed,
			Created:   result.Run.Stats.Created,
			Updated:   result.Run.Stats.Updated,
			Skipped:   result.Run.Stats.Skipped,
		},
		History:  make([]snapshotEntry, 0, len(result.Run.History)),
		Statuses: result.Statuses,
	}
	for _, e := range result.Run.History {
		snap.History = append(snap.History, snapshotEntry{
			ID:        e.ID,
			JourneyID: e.JourneyID,
			Operation: string(e.Operation),
			Outcome:   string(e.Outcome),
			RemoteID:  e.RemoteID,
			Error:     e.Error,
		})
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	g := goldie.New(t)
	g.Assert(t, scenario.Name, data)
	return result, nil
}
