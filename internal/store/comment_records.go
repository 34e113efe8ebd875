package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/corvid-labs/jira-bridge/internal/model"
)

const commentRecordColumns = `sync_id, issue_key, source_comment_id, target_comment_id,
	source_side, target_side, last_sync_timestamp, sync_direction, status`

// SaveCommentRecord upserts the whole record, last-write-wins.
func (s *Store) SaveCommentRecord(ctx context.Context, r *model.CommentSyncRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO comment_sync_record (`+commentRecordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (sync_id) DO UPDATE SET
			target_comment_id = EXCLUDED.target_comment_id,
			last_sync_timestamp = EXCLUDED.last_sync_timestamp,
			sync_direction = EXCLUDED.sync_direction,
			status = EXCLUDED.status`,
		r.SyncID, r.IssueKey, r.SourceCommentID, r.TargetCommentID,
		int(r.SourceSide), int(r.TargetSide), r.LastSyncTimestamp,
		string(r.SyncDirection), string(r.Status),
	)
	return wrap("save_comment_record", err)
}

// GetCommentRecord fetches a record by its primary key. Returns (nil, nil)
// if no record exists.
func (s *Store) GetCommentRecord(ctx context.Context, syncID string) (*model.CommentSyncRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+commentRecordColumns+` FROM comment_sync_record WHERE sync_id = $1`, syncID)
	return scanCommentRecord(row)
}

// FindCommentBySource looks up the record for a specific source comment and
// target side. Returns (nil, nil) if no record exists.
func (s *Store) FindCommentBySource(ctx context.Context, issueKey, sourceCommentID string, targetSide model.Side) (*model.CommentSyncRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+commentRecordColumns+` FROM comment_sync_record
		WHERE issue_key = $1 AND source_comment_id = $2 AND target_side = $3`,
		issueKey, sourceCommentID, int(targetSide))
	return scanCommentRecord(row)
}

func scanCommentRecord(row rowScanner) (*model.CommentSyncRecord, error) {
	var r model.CommentSyncRecord
	var sourceSide, targetSide int
	var direction, status string

	err := row.Scan(
		&r.SyncID, &r.IssueKey, &r.SourceCommentID, &r.TargetCommentID,
		&sourceSide, &targetSide, &r.LastSyncTimestamp, &direction, &status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("scan_comment_record", err)
	}

	r.SourceSide = model.Side(sourceSide)
	r.TargetSide = model.Side(targetSide)
	r.SyncDirection = model.SyncDirection(direction)
	r.Status = model.SyncStatus(status)
	return &r, nil
}
