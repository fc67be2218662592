package conflict

import (
	"fmt"
	"time"

	"github.com/touchpointhq/journeysync/internal/journey"
	"github.com/touchpointhq/journeysync/internal/remote"
)

// Detector classifies divergence between a journey and its remote
// counterpart. Detection is stateless: each call re-evaluates from its inputs
// alone, so unchanged inputs yield structurally identical conflict lists
// (fresh identities aside).
type Detector struct {
	ids IDGenerator
	now func() time.Time
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithIDGenerator replaces the identity source (tests use a fixed sequence).
func WithIDGenerator(gen IDGenerator) DetectorOption {
	return func(d *Detector) { d.ids = gen }
}

// WithNow replaces the time source.
func WithNow(now func() time.Time) DetectorOption {
	return func(d *Detector) { d.now = now }
}

// NewDetector creates a Detector with UUID identities and wall-clock time.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		ids: UUIDGenerator{},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect runs every applicable check and returns all conflicts found.
//
// An absent remote entity short-circuits: with nothing to compare against,
// the only meaningful finding is missing_remote (low, auto-create). Otherwise
// checks 2-4 all run; they read only their own inputs and have no ordering
// dependency:
//
//  2. external_modification (high, manual): remote updated after both our
//     last sync and our last local edit.
//  3. version_mismatch (medium, merge): remote echoes a version ahead of ours.
//  4. concurrent_edit (low, auto-overwrite): step counts differ.
func (d *Detector) Detect(j *journey.Journey, entity *remote.Entity) []Conflict {
	if entity == nil {
		return []Conflict{d.conflict(j, TypeMissingRemote, SeverityLow, ResolutionAutoCreate,
			"journey has no remote counterpart", nil)}
	}

	var conflicts []Conflict

	// lastSync zero value doubles as epoch 0 for never-synced journeys.
	if entity.UpdatedAt.After(j.LastSync) && entity.UpdatedAt.After(j.LastModified) {
		conflicts = append(conflicts, d.conflict(j, TypeExternalModification, SeverityHigh, ResolutionManual,
			"remote entity was modified after our last sync and last local edit",
			map[string]string{
				"remote_updated_at": entity.UpdatedAt.UTC().Format(time.RFC3339),
				"last_sync":         j.LastSync.UTC().Format(time.RFC3339),
				"last_modified":     j.LastModified.UTC().Format(time.RFC3339),
			}))
	}

	if entity.Settings.RecordVersion > j.Version {
		conflicts = append(conflicts, d.conflict(j, TypeVersionMismatch, SeverityMedium, ResolutionMerge,
			fmt.Sprintf("remote echoes version %d, local is %d", entity.Settings.RecordVersion, j.Version),
			map[string]string{
				"remote_version": fmt.Sprintf("%d", entity.Settings.RecordVersion),
				"local_version":  fmt.Sprintf("%d", j.Version),
			}))
	}

	if len(j.Steps) != len(entity.Steps) {
		conflicts = append(conflicts, d.conflict(j, TypeConcurrentEdit, SeverityLow, ResolutionAutoOverwrite,
			fmt.Sprintf("local has %d steps, remote has %d", len(j.Steps), len(entity.Steps)),
			map[string]string{
				"local_steps":       fmt.Sprintf("%d", len(j.Steps)),
				"remote_steps":      fmt.Sprintf("%d", len(entity.Steps)),
				"local_fingerprint": j.Fingerprint(),
			}))
	}

	return conflicts
}

func (d *Detector) conflict(j *journey.Journey, typ Type, sev Severity, policy Resolution, msg string, details map[string]string) Conflict {
	return Conflict{
		ID:         d.ids.Generate(),
		JourneyID:  j.ID,
		Type:       typ,
		Severity:   sev,
		Policy:     policy,
		Message:    msg,
		Details:    details,
		DetectedAt: d.now(),
	}
}
