package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/touchpointhq/journeysync/internal/conflict"
)

// Register persists one detected conflict. Satisfies conflict.Registry so
// triage survives across process restarts, unlike the in-memory registry.
func (s *Store) Register(ctx context.Context, c conflict.Conflict) error {
	detailsJSON, err := json.Marshal(c.Details)
	if err != nil {
		return fmt.Errorf("register conflict: marshal details: %w", err)
	}

	resolvedAt := ""
	if c.ResolvedAt != nil {
		resolvedAt = formatTime(*c.ResolvedAt)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conflicts
		(id, journey_id, type, severity, policy, message, details, detected_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.JourneyID,
		string(c.Type),
		string(c.Severity),
		string(c.Policy),
		c.Message,
		string(detailsJSON),
		formatTime(c.DetectedAt),
		resolvedAt,
	)
	if err != nil {
		return fmt.Errorf("register conflict %s: %w", c.ID, err)
	}
	return nil
}

// ListFor returns all conflicts recorded for a journey, oldest first.
func (s *Store) ListFor(ctx context.Context, journeyID string) ([]conflict.Conflict, error) {
	return s.queryConflicts(ctx, `
		SELECT id, journey_id, type, severity, policy, message, details, detected_at, resolved_at
		FROM conflicts
		WHERE journey_id = ?
		ORDER BY detected_at ASC, id ASC
	`, journeyID)
}

// Unresolved returns all open conflicts across journeys, oldest first.
func (s *Store) Unresolved(ctx context.Context) ([]conflict.Conflict, error) {
	return s.queryConflicts(ctx, `
		SELECT id, journey_id, type, severity, policy, message, details, detected_at, resolved_at
		FROM conflicts
		WHERE resolved_at = ''
		ORDER BY detected_at ASC, id ASC
	`)
}

// Resolve stamps a conflict resolved with the chosen strategy. The row is
// kept as triage history. Returns conflict.ErrNotFound for unknown ids.
func (s *Store) Resolve(ctx context.Context, conflictID string, resolution conflict.Resolution) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conflicts SET policy = ?, resolved_at = ? WHERE id = ?
	`, string(resolution), formatTime(time.Now()), conflictID)
	if err != nil {
		return fmt.Errorf("resolve conflict %s: %w", conflictID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve conflict %s: %w", conflictID, err)
	}
	if affected == 0 {
		return fmt.Errorf("resolve conflict %s: %w", conflictID, conflict.ErrNotFound)
	}
	return nil
}

// IsBlocking reports whether the journey has any unresolved conflict whose
// policy requires manual intervention.
func (s *Store) IsBlocking(ctx context.Context, journeyID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM conflicts
		WHERE journey_id = ? AND resolved_at = '' AND policy = ?
	`, journeyID, string(conflict.ResolutionManual)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check blocking conflicts for %s: %w", journeyID, err)
	}
	return count > 0, nil
}

func (s *Store) queryConflicts(ctx context.Context, query string, args ...any) ([]conflict.Conflict, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []conflict.Conflict
	for rows.Next() {
		var (
			c           conflict.Conflict
			ctype       string
			severity    string
			policy      string
			detailsJSON string
			detectedAt  string
			resolvedAt  string
		)
		err := rows.Scan(
			&c.ID, &c.JourneyID, &ctype, &severity, &policy,
			&c.Message, &detailsJSON, &detectedAt, &resolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}
		c.Type = conflict.Type(ctype)
		c.Severity = conflict.Severity(severity)
		c.Policy = conflict.Resolution(policy)
		if err := json.Unmarshal([]byte(detailsJSON), &c.Details); err != nil {
			return nil, fmt.Errorf("unmarshal conflict details for %s: %w", c.ID, err)
		}
		if c.DetectedAt, err = parseTime(detectedAt); err != nil {
			return nil, err
		}
		if resolvedAt != "" {
			t, err := parseTime(resolvedAt)
			if err != nil {
				return nil, err
			}
			c.ResolvedAt = &t
		}
		conflicts = append(conflicts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conflicts: %w", err)
	}

	if conflicts == nil {
		conflicts = []conflict.Conflict{}
	}
	return conflicts, nil
}
