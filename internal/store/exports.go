package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExportRecord is one row of the export ledger: the outcome of a single
// conversation in a single run. Rows are only ever inserted.
type ExportRecord struct {
	ID             uuid.UUID
	RunID          uuid.UUID
	ConversationID string
	ContactName    string
	FilePath       string
	DriveFileID    string
	Status         string
	Error          string
	ExportedAt     time.Time
}

// RecordExport inserts rec and returns its id.
func (s *Store) RecordExport(ctx context.Context, rec ExportRecord) (uuid.UUID, error) {
	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	exportedAt := rec.ExportedAt
	if exportedAt.IsZero() {
		exportedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO transcript_exports
			(id, run_id, conversation_id, contact_name, file_path, drive_file_id, status, error, exported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, rec.RunID, rec.ConversationID, rec.ContactName, rec.FilePath, rec.DriveFileID, rec.Status, rec.Error, exportedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert export: %w", err)
	}
	return id, nil
}

// ListRunExports returns the ledger rows of one run in insertion order.
func (s *Store) ListRunExports(ctx context.Context, runID uuid.UUID) ([]ExportRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, run_id, conversation_id, contact_name, file_path, drive_file_id, status, error, exported_at
		FROM transcript_exports
		WHERE run_id = $1
		ORDER BY exported_at, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	var out []ExportRecord
	for rows.Next() {
		var r ExportRecord
		if err := rows.Scan(&r.ID, &r.RunID, &r.ConversationID, &r.ContactName, &r.FilePath, &r.DriveFileID, &r.Status, &r.Error, &r.ExportedAt); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}
	return out, nil
}
