package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touchpointhq/journeysync/internal/journey"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "create_new_journey.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "create_new_journey", scenario.Name)
	require.Len(t, scenario.Journeys, 1)
	assert.Equal(t, "jny-1", scenario.Journeys[0].ID)
	require.Len(t, scenario.Journeys[0].Steps, 1)
	assert.Equal(t, "message", scenario.Journeys[0].Steps[0].Kind)
	assert.True(t, scenario.Expect.Success)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: has a typo'd field
journeys:
  - id: jny-1
    name: Welcome
expectation:
  success: true
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingName(t *testing.T) {
	path := writeScenario(t, `
description: no name
journeys:
  - id: jny-1
    name: Welcome
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadScenario_NoJourneys(t *testing.T) {
	path := writeScenario(t, `
name: empty
description: no journeys to sync
journeys: []
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one journey")
}

func TestJourneyFromFixture_Defaults(t *testing.T) {
	j, err := journeyFromFixture(JourneyFixture{
		ID:   "jny-1",
		Name: "Welcome",
		Steps: []StepFixture{
			{ID: "s1", Order: 1, Kind: "message", Subject: "Hi", Body: "Hello"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, journey.StatusApproved, j.Status)
	assert.Equal(t, 1, j.Version)
	assert.Equal(t, journey.SyncPending, j.SyncStatus)
	require.Len(t, j.Steps, 1)
	assert.Equal(t, journey.DelayMinutes, j.Steps[0].DelayUnit)
	require.NotNil(t, j.Steps[0].Message)
	assert.Equal(t, "Hi", j.Steps[0].Message.Subject)
}

func TestJourneyFromFixture_UnknownKind(t *testing.T) {
	_, err := journeyFromFixture(JourneyFixture{
		ID:   "jny-1",
		Name: "Welcome",
		Steps: []StepFixture{
			{ID: "s1", Order: 1, Kind: "carrier_pigeon"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}
