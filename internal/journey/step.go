package journey

// StepKind identifies the variant of a step. The set is closed: every kind a
// journey can carry is enumerated here, and the mapper boundary matches on it
// exhaustively.
type StepKind string

const (
	StepMessage   StepKind = "message"
	StepTask      StepKind = "task"
	StepDelay     StepKind = "delay"
	StepCondition StepKind = "condition"
	StepTrigger   StepKind = "trigger"
	StepNote      StepKind = "note"
	StepCall      StepKind = "call"
)

// ValidStepKinds defines the allowed step kinds.
var ValidStepKinds = []StepKind{
	StepMessage, StepTask, StepDelay, StepCondition, StepTrigger, StepNote, StepCall,
}

// DelayUnit is the unit of a step's offset from its predecessor.
type DelayUnit string

const (
	DelayMinutes DelayUnit = "minutes"
	DelayHours   DelayUnit = "hours"
	DelayDays    DelayUnit = "days"
	DelayWeeks   DelayUnit = "weeks"
)

// ValidDelayUnits defines the allowed delay units.
var ValidDelayUnits = []DelayUnit{DelayMinutes, DelayHours, DelayDays, DelayWeeks}

// Step is one timed touchpoint in a journey.
//
// Step is a tagged union: Kind selects which payload pointer is set, and at
// most one payload is non-nil. Delay/DelayUnit define the offset from the
// previous step in Order.
type Step struct {
	ID        string    `json:"id"`
	Order     int       `json:"order"`
	Name      string    `json:"name"`
	Kind      StepKind  `json:"kind"`
	Delay     int       `json:"delay"`
	DelayUnit DelayUnit `json:"delay_unit"`

	// Kind-specific payloads. Exactly the one matching Kind is set.
	Message   *MessagePayload   `json:"message,omitempty"`
	Task      *TaskPayload      `json:"task,omitempty"`
	Condition *ConditionPayload `json:"condition,omitempty"`
	Trigger   *TriggerPayload   `json:"trigger,omitempty"`
	Note      *NotePayload      `json:"note,omitempty"`
	Call      *CallPayload      `json:"call,omitempty"`
}

// MessagePayload carries outbound message content.
type MessagePayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Channel string `json:"channel,omitempty"` // "email", "sms", ...
}

// TaskPayload carries a manual follow-up task.
type TaskPayload struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
}

// ConditionPayload branches the journey on an expression evaluated remotely.
type ConditionPayload struct {
	Expression string `json:"expression"`
}

// TriggerPayload names the external event that advances the journey.
type TriggerPayload struct {
	Event string `json:"event"`
}

// NotePayload is an internal annotation, never delivered to a contact.
type NotePayload struct {
	Text string `json:"text"`
}

// CallPayload schedules a phone call touchpoint.
type CallPayload struct {
	Script          string `json:"script,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}
