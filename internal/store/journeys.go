package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/touchpointhq/journeysync/internal/journey"
)

// SaveJourney inserts or replaces a journey row. Steps are serialized to JSON.
func (s *Store) SaveJourney(ctx context.Context, j journey.Journey) error {
	stepsJSON, err := json.Marshal(j.Steps)
	if err != nil {
		return fmt.Errorf("save journey: marshal steps: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journeys
		(id, owner_id, name, status, version, steps, last_modified, last_sync, remote_id, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id      = excluded.owner_id,
			name          = excluded.name,
			status        = excluded.status,
			version       = excluded.version,
			steps         = excluded.steps,
			last_modified = excluded.last_modified,
			last_sync     = excluded.last_sync,
			remote_id     = excluded.remote_id,
			sync_status   = excluded.sync_status
	`,
		j.ID,
		j.OwnerID,
		j.Name,
		string(j.Status),
		j.Version,
		string(stepsJSON),
		formatTime(j.LastModified),
		formatTime(j.LastSync),
		j.RemoteID,
		string(j.SyncStatus),
	)
	if err != nil {
		return fmt.Errorf("save journey %s: %w", j.ID, err)
	}
	return nil
}

// FetchJourney returns a journey by id, or (nil, nil) when absent.
func (s *Store) FetchJourney(ctx context.Context, id string) (*journey.Journey, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, status, version, steps, last_modified, last_sync, remote_id, sync_status
		FROM journeys
		WHERE id = ?
	`, id)

	j, err := scanJourney(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch journey %s: %w", id, err)
	}
	return &j, nil
}

// FetchPending returns journeys with sync_status = 'pending', ordered by id
// for deterministic batch processing. ownerID, when non-empty, scopes the
// worklist to one tenant.
func (s *Store) FetchPending(ctx context.Context, ownerID string) ([]journey.Journey, error) {
	query := `
		SELECT id, owner_id, name, status, version, steps, last_modified, last_sync, remote_id, sync_status
		FROM journeys
		WHERE sync_status = 'pending'
	`
	args := []any{}
	if ownerID != "" {
		query += " AND owner_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending journeys: %w", err)
	}
	defer rows.Close()

	var journeys []journey.Journey
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending journey: %w", err)
		}
		journeys = append(journeys, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending journeys: %w", err)
	}

	if journeys == nil {
		journeys = []journey.Journey{}
	}
	return journeys, nil
}

// UpdateSyncStatus transitions a journey's sync status. RemoteID and LastSync
// are persisted only when populated, so a failure transition never clears the
// journey's remote identity.
func (s *Store) UpdateSyncStatus(ctx context.Context, id string, update journey.SyncUpdate) error {
	query := "UPDATE journeys SET sync_status = ?"
	args := []any{string(update.Status)}

	if update.RemoteID != "" {
		query += ", remote_id = ?"
		args = append(args, update.RemoteID)
	}
	if !update.LastSync.IsZero() {
		query += ", last_sync = ?"
		args = append(args, formatTime(update.LastSync))
	}
	query += " WHERE id = ?"
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update sync status for %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update sync status for %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("update sync status: journey %s not found", id)
	}
	return nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanJourney(row scanner) (journey.Journey, error) {
	var (
		j            journey.Journey
		status       string
		stepsJSON    string
		lastModified string
		lastSync     string
		syncStatus   string
	)
	err := row.Scan(
		&j.ID, &j.OwnerID, &j.Name, &status, &j.Version,
		&stepsJSON, &lastModified, &lastSync, &j.RemoteID, &syncStatus,
	)
	if err != nil {
		return journey.Journey{}, err
	}

	j.Status = journey.Status(status)
	j.SyncStatus = journey.SyncStatus(syncStatus)

	if err := json.Unmarshal([]byte(stepsJSON), &j.Steps); err != nil {
		return journey.Journey{}, fmt.Errorf("unmarshal steps for %s: %w", j.ID, err)
	}
	if j.LastModified, err = parseTime(lastModified); err != nil {
		return journey.Journey{}, err
	}
	if j.LastSync, err = parseTime(lastSync); err != nil {
		return journey.Journey{}, err
	}
	return j, nil
}
