// Package journey defines the local journey model: an ordered sequence of
// timed marketing touchpoints that is authored locally and reconciled against
// a remote workflow engine.
package journey

import "time"

// Status represents the editorial lifecycle of a journey.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusInReview  Status = "in_review"
	StatusApproved  Status = "approved"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ValidStatuses defines the allowed journey statuses.
var ValidStatuses = []Status{
	StatusDraft, StatusInReview, StatusApproved, StatusPublished, StatusArchived,
}

// SyncStatus represents where a journey sits in the reconciliation state machine.
//
// Transitions per sync pass:
//
//	pending -> syncing -> synced | failed | conflict | skipped
//
// A journey returns to pending on its next local edit.
type SyncStatus string

const (
	SyncPending  SyncStatus = "pending"
	SyncSyncing  SyncStatus = "syncing"
	SyncSynced   SyncStatus = "synced"
	SyncFailed   SyncStatus = "failed"
	SyncConflict SyncStatus = "conflict"
	SyncSkipped  SyncStatus = "skipped"
)

// ValidSyncStatuses defines the allowed sync statuses.
var ValidSyncStatuses = []SyncStatus{
	SyncPending, SyncSyncing, SyncSynced, SyncFailed, SyncConflict, SyncSkipped,
}

// Journey is a locally authored journey entity being synchronized outward.
//
// INVARIANTS:
//   - RemoteID is empty iff the journey has never been successfully created
//     in the remote system.
//   - Version increases monotonically on local edits and never moves backward.
//   - Steps are processed in ascending Order; no two steps share an Order.
type Journey struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id,omitempty"` // tenant/namespace scope
	Name         string     `json:"name"`
	Steps        []Step     `json:"steps"`
	Status       Status     `json:"status"`
	Version      int        `json:"version"`
	LastModified time.Time  `json:"last_modified"`
	LastSync     time.Time  `json:"last_sync,omitempty"` // zero = never reconciled
	RemoteID     string     `json:"remote_id,omitempty"` // empty = never created remotely
	SyncStatus   SyncStatus `json:"sync_status"`
}

// SyncUpdate carries the fields a store persists alongside a sync status
// transition. Zero-valued fields are left untouched.
type SyncUpdate struct {
	Status   SyncStatus
	RemoteID string    // set when non-empty
	LastSync time.Time // set when non-zero
}

// Synced reports whether the journey has a remote counterpart.
func (j *Journey) Synced() bool {
	return j.RemoteID != ""
}

// StepCount returns the number of steps. Used as a cheap structural signal
// when comparing against the remote counterpart.
func (j *Journey) StepCount() int {
	return len(j.Steps)
}
