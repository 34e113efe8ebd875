package store

import (
	"context"

	"github.com/corvid-labs/jira-bridge/internal/model"
)

const defaultScanLimit = 100

// Scan lists issue sync records for operational inspection, ordered by
// last_sync_timestamp descending. limit <= 0 uses a default cap.
func (s *Store) Scan(ctx context.Context, limit int) ([]*model.IssueSyncRecord, error) {
	if limit <= 0 {
		limit = defaultScanLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+issueRecordColumns+` FROM issue_sync_record
		ORDER BY last_sync_timestamp DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, wrap("scan", err)
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
	return out, wrap("scan", rows.Err())
}
