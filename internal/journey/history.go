package journey

import "time"

// Operation is the remote-facing action a sync attempt performed (or skipped).
type Operation string

const (
	OpCreate   Operation = "create"
	OpUpdate   Operation = "update"
	OpSkip     Operation = "skip"
	OpRollback Operation = "rollback"
)

// Outcome is the result of a sync attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// HistoryEntry is the immutable audit record of one sync attempt.
//
// Entries are append-only and write-once: they are created after the remote
// call resolves and before the next journey is processed, so their order
// matches processing order exactly. They are never updated or deleted.
type HistoryEntry struct {
	ID         string    `json:"id"`
	JourneyID  string    `json:"journey_id"`
	Operation  Operation `json:"operation"`
	Outcome    Outcome   `json:"outcome"`
	RemoteID   string    `json:"remote_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
