package remote

import (
	"fmt"
	"sort"

	"github.com/touchpointhq/journeysync/internal/journey"
)

// Mapper projects a local journey into the remote wire payload. The
// transformation is deterministic and pure; all ordering and field-naming
// rules live here and are opaque to the reconciliation core.
type Mapper interface {
	ToPayload(j *journey.Journey) (Payload, error)
}

// DefaultMapper maps each step kind onto the workflow engine's step types.
type DefaultMapper struct{}

// ToPayload builds the payload with steps in ascending Order. The step-kind
// switch is exhaustive over the closed kind set; an unknown kind is a local
// data error and fails the journey before any remote call.
func (DefaultMapper) ToPayload(j *journey.Journey) (Payload, error) {
	steps := make([]journey.Step, len(j.Steps))
	copy(steps, j.Steps)
	sort.Slice(steps, func(a, z int) bool { return steps[a].Order < steps[z].Order })

	payload := Payload{
		Name:     j.Name,
		Steps:    make([]EntityStep, 0, len(steps)),
		Settings: Settings{RecordVersion: j.Version},
	}

	for _, s := range steps {
		es := EntityStep{
			ID:        s.ID,
			Name:      s.Name,
			Delay:     s.Delay,
			DelayUnit: string(s.DelayUnit),
		}

		switch s.Kind {
		case journey.StepMessage:
			es.Type = "email"
			if s.Message != nil {
				es.Subject = s.Message.Subject
				es.Body = s.Message.Body
				if s.Message.Channel == "sms" {
					es.Type = "sms"
				}
			}
		case journey.StepTask:
			es.Type = "task"
			if s.Task != nil {
				es.Subject = s.Task.Title
				es.Body = s.Task.Description
				es.Detail = s.Task.Assignee
			}
		case journey.StepDelay:
			es.Type = "wait"
		case journey.StepCondition:
			es.Type = "branch"
			if s.Condition != nil {
				es.Detail = s.Condition.Expression
			}
		case journey.StepTrigger:
			es.Type = "trigger"
			if s.Trigger != nil {
				es.Detail = s.Trigger.Event
			}
		case journey.StepNote:
			es.Type = "note"
			if s.Note != nil {
				es.Body = s.Note.Text
			}
		case journey.StepCall:
			es.Type = "call"
			if s.Call != nil {
				es.Body = s.Call.Script
				es.Delay = s.Delay
				es.Detail = fmt.Sprintf("%d min", s.Call.DurationMinutes)
			}
		default:
			return Payload{}, fmt.Errorf("journey %s: step %s has unknown kind %q", j.ID, s.ID, s.Kind)
		}

		payload.Steps = append(payload.Steps, es)
	}

	return payload, nil
}

// StepsFromEntity projects remote entity steps back into the local step
// model. Best-effort inverse of ToPayload, used for side-by-side diffing
// during conflict triage; unrecognized remote types come back as notes so
// the diff still shows them.
func StepsFromEntity(e *Entity) []journey.Step {
	if e == nil {
		return nil
	}

	steps := make([]journey.Step, 0, len(e.Steps))
	for i, es := range e.Steps {
		s := journey.Step{
			ID:        es.ID,
			Order:     i + 1,
			Name:      es.Name,
			Delay:     es.Delay,
			DelayUnit: journey.DelayUnit(es.DelayUnit),
		}

		switch es.Type {
		case "email":
			s.Kind = journey.StepMessage
			s.Message = &journey.MessagePayload{Subject: es.Subject, Body: es.Body, Channel: "email"}
		case "sms":
			s.Kind = journey.StepMessage
			s.Message = &journey.MessagePayload{Subject: es.Subject, Body: es.Body, Channel: "sms"}
		case "task":
			s.Kind = journey.StepTask
			s.Task = &journey.TaskPayload{Title: es.Subject, Description: es.Body, Assignee: es.Detail}
		case "wait":
			s.Kind = journey.StepDelay
		case "branch":
			s.Kind = journey.StepCondition
			s.Condition = &journey.ConditionPayload{Expression: es.Detail}
		case "trigger":
			s.Kind = journey.StepTrigger
			s.Trigger = &journey.TriggerPayload{Event: es.Detail}
		case "call":
			s.Kind = journey.StepCall
			s.Call = &journey.CallPayload{Script: es.Body}
		default:
			s.Kind = journey.StepNote
			s.Note = &journey.NotePayload{Text: es.Body}
		}

		steps = append(steps, s)
	}
	return steps
}
