package store

import (
	"context"
	"fmt"

	"github.com/touchpointhq/journeysync/internal/journey"
)

// AppendHistory inserts one sync history entry. The table is append-only;
// duplicate IDs are silently ignored so a retried append stays idempotent.
func (s *Store) AppendHistory(ctx context.Context, entry journey.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_history
		(id, journey_id, operation, outcome, remote_id, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		entry.ID,
		entry.JourneyID,
		string(entry.Operation),
		string(entry.Outcome),
		entry.RemoteID,
		entry.Error,
		entry.DurationMs,
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// History returns history entries newest first. journeyID, when non-empty,
// scopes the result to one journey.
func (s *Store) History(ctx context.Context, journeyID string) ([]journey.HistoryEntry, error) {
	query := `
		SELECT id, journey_id, operation, outcome, remote_id, error, duration_ms, created_at
		FROM sync_history
	`
	args := []any{}
	if journeyID != "" {
		query += " WHERE journey_id = ?"
		args = append(args, journeyID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []journey.HistoryEntry
	for rows.Next() {
		var (
			e         journey.HistoryEntry
			operation string
			outcome   string
			createdAt string
		)
		err := rows.Scan(
			&e.ID, &e.JourneyID, &operation, &outcome,
			&e.RemoteID, &e.Error, &e.DurationMs, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Operation = journey.Operation(operation)
		e.Outcome = journey.Outcome(outcome)
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	if entries == nil {
		entries = []journey.HistoryEntry{}
	}
	return entries, nil
}
