package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/corvid-labs/jira-bridge/internal/model"
)

const issueRecordColumns = `sync_id, left_key, right_key, status, last_sync_direction,
	last_sync_timestamp, left_last_updated, right_last_updated, error_count,
	last_error, requires_manual_resolution, conflict_details`

// SaveIssueRecord upserts the whole record, last-write-wins.
func (s *Store) SaveIssueRecord(ctx context.Context, r *model.IssueSyncRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO issue_sync_record (`+issueRecordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (sync_id) DO UPDATE SET
			left_key = EXCLUDED.left_key,
			right_key = EXCLUDED.right_key,
			status = EXCLUDED.status,
			last_sync_direction = EXCLUDED.last_sync_direction,
			last_sync_timestamp = EXCLUDED.last_sync_timestamp,
			left_last_updated = EXCLUDED.left_last_updated,
			right_last_updated = EXCLUDED.right_last_updated,
			error_count = EXCLUDED.error_count,
			last_error = EXCLUDED.last_error,
			requires_manual_resolution = EXCLUDED.requires_manual_resolution,
			conflict_details = EXCLUDED.conflict_details`,
		r.SyncID, r.LeftKey, r.RightKey, string(r.Status), directionPtr(r.LastSyncDirection),
		r.LastSyncTimestamp, r.LeftLastUpdated, r.RightLastUpdated, r.ErrorCount,
		r.LastError, r.RequiresManualResolution, r.ConflictDetails,
	)
	return wrap("save_issue_record", err)
}

// SaveIssueRecordAs upserts r under its current sync_id, first removing
// whatever row lived under oldSyncID if that differs. sync_id is a
// composite of both side keys, so it changes out from under a record the
// moment its previously-nil side gets paired; without the delete, that
// earlier id's row would be orphaned instead of converging to one row per
// issue pair.
func (s *Store) SaveIssueRecordAs(ctx context.Context, oldSyncID string, r *model.IssueSyncRecord) error {
	if oldSyncID == "" || oldSyncID == r.SyncID {
		return s.SaveIssueRecord(ctx, r)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrap("save_issue_record_as", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM issue_sync_record WHERE sync_id = $1`, oldSyncID); err != nil {
		return wrap("save_issue_record_as", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO issue_sync_record (`+issueRecordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (sync_id) DO UPDATE SET
			left_key = EXCLUDED.left_key,
			right_key = EXCLUDED.right_key,
			status = EXCLUDED.status,
			last_sync_direction = EXCLUDED.last_sync_direction,
			last_sync_timestamp = EXCLUDED.last_sync_timestamp,
			left_last_updated = EXCLUDED.left_last_updated,
			right_last_updated = EXCLUDED.right_last_updated,
			error_count = EXCLUDED.error_count,
			last_error = EXCLUDED.last_error,
			requires_manual_resolution = EXCLUDED.requires_manual_resolution,
			conflict_details = EXCLUDED.conflict_details`,
		r.SyncID, r.LeftKey, r.RightKey, string(r.Status), directionPtr(r.LastSyncDirection),
		r.LastSyncTimestamp, r.LeftLastUpdated, r.RightLastUpdated, r.ErrorCount,
		r.LastError, r.RequiresManualResolution, r.ConflictDetails,
	)
	if err != nil {
		return wrap("save_issue_record_as", err)
	}

	return wrap("save_issue_record_as", tx.Commit(ctx))
}

// GetIssueRecord fetches a record by its primary key. Returns (nil, nil) if
// no record exists.
func (s *Store) GetIssueRecord(ctx context.Context, syncID string) (*model.IssueSyncRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+issueRecordColumns+` FROM issue_sync_record WHERE sync_id = $1`, syncID)
	return scanIssueRecord(row)
}

// FindIssueRecordByKey uses the per-side secondary index to find the record
// owning this key. Returns (nil, nil) if no record exists.
func (s *Store) FindIssueRecordByKey(ctx context.Context, key string, side model.Side) (*model.IssueSyncRecord, error) {
	col := "left_key"
	if side == model.Right {
		col = "right_key"
	}
	row := s.pool.QueryRow(ctx, `SELECT `+issueRecordColumns+` FROM issue_sync_record WHERE `+col+` = $1`, key)
	return scanIssueRecord(row)
}

// ListIssueRecordsByStatus uses the status secondary index.
func (s *Store) ListIssueRecordsByStatus(ctx context.Context, status model.SyncStatus) ([]*model.IssueSyncRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+issueRecordColumns+` FROM issue_sync_record WHERE status = $1`, string(status))
	if err != nil {
		return nil, wrap("list_issue_records_by_status", err)
	}
	defer rows.Close()

	var out []*model.IssueSyncRecord
	for rows.Next() {
		r, err := scanIssueRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, wrap("list_issue_records_by_status", rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssueRecord(row rowScanner) (*model.IssueSyncRecord, error) {
	var r model.IssueSyncRecord
	var status string
	var direction *string

	err := row.Scan(
		&r.SyncID, &r.LeftKey, &r.RightKey, &status, &direction,
		&r.LastSyncTimestamp, &r.LeftLastUpdated, &r.RightLastUpdated, &r.ErrorCount,
		&r.LastError, &r.RequiresManualResolution, &r.ConflictDetails,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("scan_issue_record", err)
	}

	r.Status = model.SyncStatus(status)
	if direction != nil {
		d := model.SyncDirection(*direction)
		r.LastSyncDirection = &d
	}
	return &r, nil
}

func directionPtr(d *model.SyncDirection) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}
