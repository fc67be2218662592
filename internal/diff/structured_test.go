package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touchpointhq/journeysync/internal/journey"
)

func messageStep(id string, order int, name, subject, body string) journey.Step {
	return journey.Step{
		ID:        id,
		Order:     order,
		Name:      name,
		Kind:      journey.StepMessage,
		DelayUnit: journey.DelayDays,
		Message:   &journey.MessagePayload{Subject: subject, Body: body},
	}
}

func TestCompareSteps_NoChanges(t *testing.T) {
	s := messageStep("s1", 1, "Welcome email", "Welcome!", "Hello there.")
	r := CompareSteps(s, s)

	assert.False(t, r.HasChanges)
	require.Len(t, r.Fields, 6)
	for _, f := range r.Fields {
		assert.Equal(t, ResultUnchanged, f.Result.Kind, "field %s", f.Field)
	}
}

func TestCompareSteps_SubjectChanged(t *testing.T) {
	old := messageStep("s1", 1, "Welcome email", "Welcome!", "Hello there.")
	updated := messageStep("s1", 1, "Welcome email", "Welcome aboard!", "Hello there.")

	r := CompareSteps(old, updated)
	assert.True(t, r.HasChanges)

	byField := map[string]Result{}
	for _, f := range r.Fields {
		byField[f.Field] = f.Result
	}
	assert.True(t, byField["subject"].HasChanges())
	assert.False(t, byField["body"].HasChanges())
	assert.False(t, byField["name"].HasChanges())
}

func TestCompareSteps_DelayChanged(t *testing.T) {
	old := messageStep("s1", 1, "Nudge", "Hi", "ping")
	updated := old
	updated.Delay = 3
	updated.DelayUnit = journey.DelayWeeks

	r := CompareSteps(old, updated)
	assert.True(t, r.HasChanges)
}

func TestCompareSteps_NonMessageKindsHaveEmptyProjection(t *testing.T) {
	old := journey.Step{ID: "s1", Kind: journey.StepNote, Name: "Note", DelayUnit: journey.DelayHours,
		Note: &journey.NotePayload{Text: "internal only"}}
	updated := old
	updated.Note = &journey.NotePayload{Text: "changed but outside projection"}

	// Note text is not in the fixed projection, so no change is reported.
	r := CompareSteps(old, updated)
	assert.False(t, r.HasChanges)
}

func TestCompareCollections_Partition(t *testing.T) {
	oldSteps := []journey.Step{
		messageStep("s1", 1, "Welcome email", "Welcome!", "Hello there."),
		messageStep("s2", 2, "Reminder", "Still there?", "Just checking in."),
		messageStep("s3", 3, "Goodbye", "Farewell", "Bye."),
	}
	newSteps := []journey.Step{
		oldSteps[0], // untouched - must be dropped from the report
		messageStep("s2", 2, "Reminder", "Are you still there?", "Just checking in."),
		messageStep("s4", 4, "Upsell", "One more thing", "Have you seen this?"),
	}

	r := CompareCollections(oldSteps, newSteps)

	require.Len(t, r.Added, 1)
	assert.Equal(t, "s4", r.Added[0].ID)

	require.Len(t, r.Removed, 1)
	assert.Equal(t, "s3", r.Removed[0].ID)

	require.Len(t, r.Modified, 1)
	assert.Equal(t, "s2", r.Modified[0].ID)
	assert.True(t, r.Modified[0].Result.HasChanges)

	assert.True(t, r.HasChanges())
}

func TestCompareCollections_Identical(t *testing.T) {
	steps := []journey.Step{
		messageStep("s1", 1, "Welcome email", "Welcome!", "Hello there."),
	}
	r := CompareCollections(steps, steps)
	assert.False(t, r.HasChanges())
	assert.Empty(t, r.Added)
	assert.Empty(t, r.Removed)
	assert.Empty(t, r.Modified)
}

func TestCompareCollections_BothEmpty(t *testing.T) {
	r := CompareCollections(nil, nil)
	assert.False(t, r.HasChanges())
}
