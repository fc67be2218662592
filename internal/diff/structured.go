package diff

import (
	"strconv"

	"github.com/touchpointhq/journeysync/internal/journey"
)

// FieldResult is the comparison of one projected field.
type FieldResult struct {
	Field  string `json:"field"`
	Result Result `json:"result"`
}

// StepResult is the field-by-field comparison of two revisions of a step.
type StepResult struct {
	Fields     []FieldResult `json:"fields"`
	HasChanges bool          `json:"has_changes"`
}

// CompareSteps applies Compare field-by-field over the fixed projection of a
// step: name, kind, message subject/body, delay, and delay unit. Payload
// fields outside the projection are intentionally opaque to the diff engine.
func CompareSteps(oldStep, newStep journey.Step) StepResult {
	fields := []struct {
		name     string
		old, new string
	}{
		{"name", oldStep.Name, newStep.Name},
		{"kind", string(oldStep.Kind), string(newStep.Kind)},
		{"subject", messageSubject(oldStep), messageSubject(newStep)},
		{"body", messageBody(oldStep), messageBody(newStep)},
		{"delay", strconv.Itoa(oldStep.Delay), strconv.Itoa(newStep.Delay)},
		{"delay_unit", string(oldStep.DelayUnit), string(newStep.DelayUnit)},
	}

	var sr StepResult
	for _, f := range fields {
		r := Compare(f.old, f.new)
		sr.Fields = append(sr.Fields, FieldResult{Field: f.name, Result: r})
		sr.HasChanges = sr.HasChanges || r.HasChanges()
	}
	return sr
}

// StepChange pairs a modified step's two revisions with their comparison.
type StepChange struct {
	ID     string       `json:"id"`
	Old    journey.Step `json:"old"`
	New    journey.Step `json:"new"`
	Result StepResult   `json:"result"`
}

// CollectionResult partitions two step lists by identity. Steps present in
// both lists and unmodified are dropped entirely: only actionable differences
// are surfaced.
type CollectionResult struct {
	Added    []journey.Step `json:"added,omitempty"`
	Removed  []journey.Step `json:"removed,omitempty"`
	Modified []StepChange   `json:"modified,omitempty"`
}

// HasChanges reports whether the collection comparison found any difference.
func (c CollectionResult) HasChanges() bool {
	return len(c.Added) > 0 || len(c.Removed) > 0 || len(c.Modified) > 0
}

// CompareCollections partitions steps into added (present only in new),
// removed (present only in old), and modified (present in both with projected
// field changes). Identity is the step ID.
func CompareCollections(oldSteps, newSteps []journey.Step) CollectionResult {
	oldByID := make(map[string]journey.Step, len(oldSteps))
	for _, s := range oldSteps {
		oldByID[s.ID] = s
	}

	var result CollectionResult
	seen := make(map[string]bool, len(newSteps))
	for _, ns := range newSteps {
		seen[ns.ID] = true
		os, ok := oldByID[ns.ID]
		if !ok {
			result.Added = append(result.Added, ns)
			continue
		}
		if sr := CompareSteps(os, ns); sr.HasChanges {
			result.Modified = append(result.Modified, StepChange{
				ID:     ns.ID,
				Old:    os,
				New:    ns,
				Result: sr,
			})
		}
	}
	for _, os := range oldSteps {
		if !seen[os.ID] {
			result.Removed = append(result.Removed, os)
		}
	}
	return result
}

func messageSubject(s journey.Step) string {
	if s.Message == nil {
		return ""
	}
	return s.Message.Subject
}

func messageBody(s journey.Step) string {
	if s.Message == nil {
		return ""
	}
	return s.Message.Body
}
