package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/touchpointhq/journeysync/internal/conflict"
	"github.com/touchpointhq/journeysync/internal/journey"
	"github.com/touchpointhq/journeysync/internal/remote"
)

// Options selects what a run covers.
type Options struct {
	// JourneyID limits the run to a single journey.
	JourneyID string

	// OwnerID scopes the worklist to one tenant/namespace.
	OwnerID string

	// DryRun evaluates conflicts and records history without remote writes.
	DryRun bool
}

// Stats aggregates per-outcome counts for one run.
type Stats struct {
	Synced    int `json:"synced"`
	Conflicts int `json:"conflicts"`
	Failed    int `json:"failed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
}

// RunResult is the run-level output: outcome counts, wall-clock duration, the
// full history produced this run, and the unresolved conflicts needing triage.
type RunResult struct {
	Success             bool                   `json:"success"`
	Stats               Stats                  `json:"stats"`
	DurationMs          int64                  `json:"duration_ms"`
	History             []journey.HistoryEntry `json:"history"`
	UnresolvedConflicts []conflict.Conflict    `json:"unresolved_conflicts,omitempty"`
}

// Run processes the worklist strictly sequentially. One journey's failure
// never aborts the batch: per-record failures become history entries and
// status transitions. Only run-level failures (store unavailable, missing
// journey for a single-record run) escape as an error.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*RunResult, error) {
	start := o.now()
	slog.Info("sync run starting",
		"journey", opts.JourneyID,
		"owner", opts.OwnerID,
		"dry_run", opts.DryRun,
	)

	worklist, err := o.worklist(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &RunResult{History: []journey.HistoryEntry{}}
	for i := range worklist {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled: %w", err)
		}
		if err := o.syncOne(ctx, &worklist[i], opts, result); err != nil {
			return nil, err
		}
	}

	unresolved, err := o.registry.Unresolved(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unresolved conflicts: %w", err)
	}
	result.UnresolvedConflicts = unresolved

	result.Success = result.Stats.Failed == 0
	result.DurationMs = o.now().Sub(start).Milliseconds()
	slog.Info("sync run complete",
		"synced", result.Stats.Synced,
		"conflicts", result.Stats.Conflicts,
		"failed", result.Stats.Failed,
		"created", result.Stats.Created,
		"updated", result.Stats.Updated,
		"skipped", result.Stats.Skipped,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

func (o *Orchestrator) worklist(ctx context.Context, opts Options) ([]journey.Journey, error) {
	if opts.JourneyID != "" {
		j, err := o.store.FetchJourney(ctx, opts.JourneyID)
		if err != nil {
			return nil, fmt.Errorf("fetch journey %s: %w", opts.JourneyID, err)
		}
		if j == nil {
			return nil, fmt.Errorf("journey %s not found", opts.JourneyID)
		}
		return []journey.Journey{*j}, nil
	}

	pending, err := o.store.FetchPending(ctx, opts.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("fetch pending journeys: %w", err)
	}
	return pending, nil
}

// syncOne drives one journey through the per-record state machine:
// pending -> syncing -> synced | failed | conflict | skipped. The returned
// error is run-level only (store failures); remote failures are absorbed into
// the journey's outcome.
func (o *Orchestrator) syncOne(ctx context.Context, j *journey.Journey, opts Options, res *RunResult) error {
	slog.Debug("syncing journey", "journey", j.ID, "name", j.Name, "version", j.Version)

	// Local data errors fail fast for this journey only; the remote API is
	// never consulted for a malformed journey.
	if err := j.Validate(); err != nil {
		res.Stats.Failed++
		return o.finish(ctx, res, j, journey.SyncFailed, journey.HistoryEntry{
			JourneyID: j.ID,
			Operation: journey.OpSkip,
			Outcome:   journey.OutcomeFailed,
			Error:     fmt.Sprintf("invalid journey: %v", err),
		})
	}

	if err := o.store.UpdateSyncStatus(ctx, j.ID, journey.SyncUpdate{Status: journey.SyncSyncing}); err != nil {
		return fmt.Errorf("mark journey %s syncing: %w", j.ID, err)
	}

	entity, err := o.fetchRemote(ctx, j)
	if err != nil {
		slog.Debug("remote fetch failed", "journey", j.ID, "error", err)
		res.Stats.Failed++
		return o.finish(ctx, res, j, journey.SyncFailed, journey.HistoryEntry{
			JourneyID: j.ID,
			Operation: journey.OpSkip,
			Outcome:   journey.OutcomeFailed,
			Error:     err.Error(),
		})
	}

	detected := o.detector.Detect(j, entity)
	for _, c := range detected {
		if err := o.registry.Register(ctx, c); err != nil {
			return fmt.Errorf("register conflict for %s: %w", j.ID, err)
		}
	}
	res.Stats.Conflicts += len(detected)

	blocking, err := o.registry.IsBlocking(ctx, j.ID)
	if err != nil {
		return fmt.Errorf("check blocking conflicts for %s: %w", j.ID, err)
	}
	if blocking {
		slog.Warn("journey blocked by unresolved conflicts", "journey", j.ID)
		res.Stats.Skipped++
		return o.finish(ctx, res, j, journey.SyncConflict, journey.HistoryEntry{
			JourneyID: j.ID,
			Operation: journey.OpSkip,
			Outcome:   journey.OutcomeFailed,
			Error:     "unresolved conflicts",
		})
	}

	if opts.DryRun {
		res.Stats.Synced++
		return o.finish(ctx, res, j, journey.SyncSynced, journey.HistoryEntry{
			JourneyID: j.ID,
			Operation: journey.OpSkip,
			Outcome:   journey.OutcomeSuccess,
			RemoteID:  j.RemoteID,
			Error:     "dry run",
		})
	}

	return o.push(ctx, j, entity != nil, res)
}

// push performs the remote write: update when the remote counterpart exists,
// create otherwise. All calls go through the retry policy.
func (o *Orchestrator) push(ctx context.Context, j *journey.Journey, remoteExists bool, res *RunResult) error {
	payload, err := o.mapper.ToPayload(j)
	if err != nil {
		res.Stats.Failed++
		return o.finish(ctx, res, j, journey.SyncFailed, journey.HistoryEntry{
			JourneyID: j.ID,
			Operation: journey.OpSkip,
			Outcome:   journey.OutcomeFailed,
			Error:     err.Error(),
		})
	}

	op := journey.OpCreate
	remoteID := j.RemoteID
	started := o.now()

	var callErr error
	if remoteExists {
		op = journey.OpUpdate
		callErr = o.limiter.Execute(ctx, func(ctx context.Context) error {
			return o.api.UpdateEntity(ctx, j.RemoteID, payload)
		})
	} else {
		callErr = o.limiter.Execute(ctx, func(ctx context.Context) error {
			id, err := o.api.CreateEntity(ctx, payload)
			if err != nil {
				return err
			}
			remoteID = id
			return nil
		})
	}
	durationMs := o.now().Sub(started).Milliseconds()

	if callErr != nil {
		slog.Debug("remote write failed", "journey", j.ID, "operation", op, "error", callErr)
		res.Stats.Failed++
		return o.finish(ctx, res, j, journey.SyncFailed, journey.HistoryEntry{
			JourneyID:  j.ID,
			Operation:  op,
			Outcome:    journey.OutcomeFailed,
			RemoteID:   j.RemoteID,
			Error:      callErr.Error(),
			DurationMs: durationMs,
		})
	}

	if op == journey.OpCreate {
		res.Stats.Created++
	} else {
		res.Stats.Updated++
	}
	res.Stats.Synced++

	now := o.now()
	if err := o.store.UpdateSyncStatus(ctx, j.ID, journey.SyncUpdate{
		Status:   journey.SyncSynced,
		RemoteID: remoteID,
		LastSync: now,
	}); err != nil {
		return fmt.Errorf("persist sync result for %s: %w", j.ID, err)
	}
	return o.appendHistory(ctx, res, journey.HistoryEntry{
		JourneyID:  j.ID,
		Operation:  op,
		Outcome:    journey.OutcomeSuccess,
		RemoteID:   remoteID,
		DurationMs: durationMs,
	}, nil)
}

// fetchRemote loads the remote counterpart through the retry policy.
// A journey that was never created remotely has nothing to fetch.
func (o *Orchestrator) fetchRemote(ctx context.Context, j *journey.Journey) (*remote.Entity, error) {
	if j.RemoteID == "" {
		return nil, nil
	}
	var fetched *remote.Entity
	err := o.limiter.Execute(ctx, func(ctx context.Context) error {
		e, err := o.api.FetchEntity(ctx, j.RemoteID)
		if err != nil {
			return err
		}
		fetched = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fetched, nil
}

// finish applies a terminal status transition plus its history entry.
func (o *Orchestrator) finish(ctx context.Context, res *RunResult, j *journey.Journey, status journey.SyncStatus, entry journey.HistoryEntry) error {
	statusErr := o.store.UpdateSyncStatus(ctx, j.ID, journey.SyncUpdate{Status: status})
	return o.appendHistory(ctx, res, entry, statusErr)
}

// appendHistory stamps identity and creation time, persists the entry, and
// keeps it on the run result. prevErr, when non-nil, is a pending run-level
// failure that still wins after the entry is recorded.
func (o *Orchestrator) appendHistory(ctx context.Context, res *RunResult, entry journey.HistoryEntry, prevErr error) error {
	entry.ID = o.ids.Generate()
	entry.CreatedAt = o.now()
	if err := o.store.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("append history for %s: %w", entry.JourneyID, err)
	}
	if res != nil {
		res.History = append(res.History, entry)
	}
	if prevErr != nil {
		return fmt.Errorf("update sync status for %s: %w", entry.JourneyID, prevErr)
	}
	return nil
}

// Rollback deletes the remote counterpart of a journey and forces its sync
// status to failed. Manual undo only - never invoked automatically.
func (o *Orchestrator) Rollback(ctx context.Context, journeyID, remoteID string) error {
	slog.Info("rolling back journey", "journey", journeyID, "remote", remoteID)

	err := o.limiter.Execute(ctx, func(ctx context.Context) error {
		return o.api.DeleteEntity(ctx, remoteID)
	})

	entry := journey.HistoryEntry{
		JourneyID: journeyID,
		Operation: journey.OpRollback,
		Outcome:   journey.OutcomeSuccess,
		RemoteID:  remoteID,
	}
	if err != nil {
		entry.Outcome = journey.OutcomeFailed
		entry.Error = err.Error()
	}

	if statusErr := o.store.UpdateSyncStatus(ctx, journeyID, journey.SyncUpdate{Status: journey.SyncFailed}); statusErr != nil {
		return fmt.Errorf("mark journey %s failed: %w", journeyID, statusErr)
	}
	if histErr := o.appendHistory(ctx, nil, entry, nil); histErr != nil {
		return histErr
	}
	return err
}
