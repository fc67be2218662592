// Package conflict classifies divergence between a local journey and its
// remote counterpart, and tracks detected conflicts until they are explicitly
// resolved.
package conflict

import (
	"time"

	"github.com/google/uuid"
)

// Type categorizes a detected divergence.
type Type string

const (
	// TypeExternalModification: the remote copy changed after our last sync
	// and after our own last local edit - someone touched it out-of-band.
	TypeExternalModification Type = "external_modification"

	// TypeVersionMismatch: the remote echoes a version number ahead of ours.
	TypeVersionMismatch Type = "version_mismatch"

	// TypeConcurrentEdit: structural signal (step counts differ) that both
	// sides changed shape.
	TypeConcurrentEdit Type = "concurrent_edit"

	// TypeMissingRemote: the journey has no remote counterpart.
	TypeMissingRemote Type = "missing_remote"

	// TypeMissingLocal: a remote entity has no local journey. Never emitted
	// by detection (the worklist is local-driven); reserved for resolution
	// bookkeeping when an operator deletes a journey out from under a
	// remote entity.
	TypeMissingLocal Type = "missing_local"
)

// Severity grades how dangerous auto-syncing over a conflict would be.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Resolution is the policy for clearing a conflict.
type Resolution string

const (
	ResolutionAutoCreate    Resolution = "auto_create"
	ResolutionAutoOverwrite Resolution = "auto_overwrite"
	ResolutionMerge         Resolution = "merge"
	ResolutionManual        Resolution = "manual"
)

// ValidResolutions defines the allowed resolution strategies.
var ValidResolutions = []Resolution{
	ResolutionAutoCreate, ResolutionAutoOverwrite, ResolutionMerge, ResolutionManual,
}

// Conflict is a detected divergence requiring a resolution policy. Conflicts
// are created during a sync pass, mutated only by explicit resolution, and
// never auto-deleted.
type Conflict struct {
	ID         string            `json:"id"`
	JourneyID  string            `json:"journey_id"`
	Type       Type              `json:"type"`
	Severity   Severity          `json:"severity"`
	Policy     Resolution        `json:"policy"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	DetectedAt time.Time         `json:"detected_at"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`
}

// Resolved reports whether the conflict has been explicitly resolved.
func (c *Conflict) Resolved() bool {
	return c.ResolvedAt != nil
}

// Blocking reports whether the conflict halts automatic sync: unresolved and
// requiring manual resolution.
func (c *Conflict) Blocking() bool {
	return !c.Resolved() && c.Policy == ResolutionManual
}

// IDGenerator produces conflict identities. Implemented by UUIDGenerator
// (production) and fixed-sequence generators (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator generates random UUID identities.
type UUIDGenerator struct{}

// Generate returns a new UUID string.
func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}
