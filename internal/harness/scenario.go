package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/touchpointhq/journeysync/internal/journey"
)

// Scenario defines one reconciliation test case: the local journeys, the
// remote state they are checked against, the run options, and the expected
// outcome.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Journeys is the local worklist seeded into a fresh store.
	Journeys []JourneyFixture `yaml:"journeys"`

	// Remote is the workflow engine state the run reconciles against.
	Remote RemoteFixture `yaml:"remote,omitempty"`

	// Options selects what the run covers.
	Options RunOptions `yaml:"options,omitempty"`

	// Expect asserts on the run outcome.
	Expect Expectation `yaml:"expect"`
}

// JourneyFixture describes one seeded journey.
type JourneyFixture struct {
	ID           string        `yaml:"id"`
	OwnerID      string        `yaml:"owner_id,omitempty"`
	Name         string        `yaml:"name"`
	Status       string        `yaml:"status"`
	Version      int           `yaml:"version"`
	LastModified time.Time     `yaml:"last_modified"`
	LastSync     time.Time     `yaml:"last_sync,omitempty"`
	RemoteID     string        `yaml:"remote_id,omitempty"`
	Steps        []StepFixture `yaml:"steps"`
}

// StepFixture describes one journey step. Payload fields apply per kind:
// subject/body for messages and tasks, body for notes.
type StepFixture struct {
	ID        string `yaml:"id"`
	Order     int    `yaml:"order"`
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	Delay     int    `yaml:"delay,omitempty"`
	DelayUnit string `yaml:"delay_unit,omitempty"`
	Subject   string `yaml:"subject,omitempty"`
	Body      string `yaml:"body,omitempty"`
}

// RemoteFixture scripts the fake workflow engine.
type RemoteFixture struct {
	// Entities are pre-existing remote workflows, keyed by their id.
	Entities []EntityFixture `yaml:"entities,omitempty"`

	// RateLimitedCalls makes the first N write calls fail with a rate-limit
	// signal before the engine recovers.
	RateLimitedCalls int `yaml:"rate_limited_calls,omitempty"`

	// RejectWrites makes every write fail permanently (HTTP 422 style).
	RejectWrites bool `yaml:"reject_writes,omitempty"`
}

// EntityFixture describes one pre-existing remote workflow.
type EntityFixture struct {
	ID            string    `yaml:"id"`
	Name          string    `yaml:"name,omitempty"`
	UpdatedAt     time.Time `yaml:"updated_at,omitempty"`
	RecordVersion int       `yaml:"record_version,omitempty"`
	StepCount     int       `yaml:"step_count,omitempty"`
}

// RunOptions mirrors the engine's run options.
type RunOptions struct {
	DryRun  bool   `yaml:"dry_run,omitempty"`
	Owner   string `yaml:"owner,omitempty"`
	Record  string `yaml:"record,omitempty"`
	Retries int    `yaml:"retries,omitempty"` // attempt cap; 0 = default (3)
}

// Expectation asserts on the run outcome. Zero-valued fields still assert
// (an absent stats block expects all-zero stats); omit whole sections by
// leaving them nil.
type Expectation struct {
	// Success is the expected run-level success flag.
	Success bool `yaml:"success"`

	// Stats are the expected outcome counts.
	Stats StatsExpectation `yaml:"stats"`

	// Statuses maps journey id to its expected final sync status.
	Statuses map[string]string `yaml:"statuses,omitempty"`

	// Conflicts lists the expected unresolved conflict types, in detection
	// order.
	Conflicts []string `yaml:"conflicts,omitempty"`
}

// StatsExpectation mirrors engine.Stats.
type StatsExpectation struct {
	Synced    int `yaml:"synced"`
	Conflicts int `yaml:"conflicts"`
	Failed    int `yaml:"failed"`
	Created   int `yaml:"created"`
	Updated   int `yaml:"updated"`
	Skipped   int `yaml:"skipped"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently weakening assertions.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Journeys) == 0 {
		return fmt.Errorf("at least one journey is required")
	}
	for i, j := range s.Journeys {
		if j.ID == "" {
			return fmt.Errorf("journeys[%d]: id is required", i)
		}
		if j.Name == "" {
			return fmt.Errorf("journeys[%d]: name is required", i)
		}
	}
	return nil
}

// journeyFromFixture builds the seeded journey. Every fixture journey starts
// pending; the scenario run is what moves it through the state machine.
func journeyFromFixture(f JourneyFixture) (journey.Journey, error) {
	j := journey.Journey{
		ID:           f.ID,
		OwnerID:      f.OwnerID,
		Name:         f.Name,
		Status:       journey.Status(f.Status),
		Version:      f.Version,
		LastModified: f.LastModified,
		LastSync:     f.LastSync,
		RemoteID:     f.RemoteID,
		SyncStatus:   journey.SyncPending,
	}
	if j.Status == "" {
		j.Status = journey.StatusApproved
	}
	if j.Version == 0 {
		j.Version = 1
	}

	for _, sf := range f.Steps {
		s := journey.Step{
			ID:        sf.ID,
			Order:     sf.Order,
			Name:      sf.Name,
			Kind:      journey.StepKind(sf.Kind),
			Delay:     sf.Delay,
			DelayUnit: journey.DelayUnit(sf.DelayUnit),
		}
		if s.DelayUnit == "" {
			s.DelayUnit = journey.DelayMinutes
		}

		switch s.Kind {
		case journey.StepMessage:
			s.Message = &journey.MessagePayload{Subject: sf.Subject, Body: sf.Body}
		case journey.StepTask:
			s.Task = &journey.TaskPayload{Title: sf.Subject, Description: sf.Body}
		case journey.StepNote:
			s.Note = &journey.NotePayload{Text: sf.Body}
		case journey.StepDelay, journey.StepCondition, journey.StepTrigger, journey.StepCall:
			// no payload from fixtures
		default:
			return journey.Journey{}, fmt.Errorf("journey %s: step %s has unknown kind %q", f.ID, sf.ID, sf.Kind)
		}
		j.Steps = append(j.Steps, s)
	}
	return j, nil
}
