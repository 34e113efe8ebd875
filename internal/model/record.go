package model

import (
	"fmt"
	"time"
)

// SyncStatus is the lifecycle state of an IssueSyncRecord.
type SyncStatus string

const (
	StatusPending    SyncStatus = "pending"
	StatusInProgress SyncStatus = "in_progress"
	StatusSuccess    SyncStatus = "success"
	StatusFailed     SyncStatus = "failed"
	StatusConflict   SyncStatus = "conflict"
)

// SyncDirection records which side was the source of the last reconcile.
type SyncDirection string

const (
	DirectionLeftToRight SyncDirection = "left_to_right"
	DirectionRightToLeft SyncDirection = "right_to_left"
)

// DirectionFromSource returns the direction implied by a given source side.
func DirectionFromSource(source Side) SyncDirection {
	if source == Left {
		return DirectionLeftToRight
	}
	return DirectionRightToLeft
}

// Source returns the side that originated this direction.
func (d SyncDirection) Source() Side {
	if d == DirectionLeftToRight {
		return Left
	}
	return Right
}

// unknownKeyPlaceholder is used while a pair is still half-formed: sync_id
// reads "{key}#unknown" until both sides exist.
const unknownKeyPlaceholder = "unknown"

// IssueSyncRecord is the durable pairing record for one issue across both
// sides. It is never deleted by normal operation.
type IssueSyncRecord struct {
	SyncID string

	LeftKey  *string
	RightKey *string

	Status                  SyncStatus
	LastSyncDirection       *SyncDirection
	LastSyncTimestamp       time.Time
	LeftLastUpdated         *time.Time
	RightLastUpdated        *time.Time
	ErrorCount              int
	LastError               *string
	RequiresManualResolution bool
	ConflictDetails         *string
}

// GenerateSyncID builds the composite key "{left}#{right}", substituting
// "unknown" for a side that doesn't exist yet.
func GenerateSyncID(leftKey, rightKey *string) string {
	l, r := unknownKeyPlaceholder, unknownKeyPlaceholder
	if leftKey != nil && *leftKey != "" {
		l = *leftKey
	}
	if rightKey != nil && *rightKey != "" {
		r = *rightKey
	}
	return fmt.Sprintf("%s#%s", l, r)
}

// KeyFor returns the issue key this record holds for the given side, or nil.
func (r *IssueSyncRecord) KeyFor(side Side) *string {
	if side == Left {
		return r.LeftKey
	}
	return r.RightKey
}

// SetKeyFor sets the issue key for the given side.
func (r *IssueSyncRecord) SetKeyFor(side Side, key string) {
	if side == Left {
		r.LeftKey = &key
	} else {
		r.RightKey = &key
	}
}

// WatermarkFor returns the sync watermark (last observed `updated`) for the
// given side, or nil if never synced.
func (r *IssueSyncRecord) WatermarkFor(side Side) *time.Time {
	if side == Left {
		return r.LeftLastUpdated
	}
	return r.RightLastUpdated
}

// SetWatermarkFor advances the watermark for the given side. Watermarks are
// monotonic: a rewind is silently ignored.
func (r *IssueSyncRecord) SetWatermarkFor(side Side, t time.Time) {
	cur := r.WatermarkFor(side)
	if cur != nil && t.Before(*cur) {
		return
	}
	if side == Left {
		r.LeftLastUpdated = &t
	} else {
		r.RightLastUpdated = &t
	}
}

// CommentSyncRecord is the durable per-comment, per-target-side sync
// record. One exists per source comment per target side once the engine
// has mirrored (or is about to mirror) it.
type CommentSyncRecord struct {
	SyncID           string
	IssueKey         string
	SourceCommentID  string
	TargetCommentID  *string
	SourceSide       Side
	TargetSide       Side
	LastSyncTimestamp time.Time
	SyncDirection    SyncDirection
	Status           SyncStatus
}

// GenerateCommentSyncID builds "{source_issue_key}#{source_comment_id}#{target_side}".
func GenerateCommentSyncID(sourceIssueKey, sourceCommentID string, targetSide Side) string {
	return fmt.Sprintf("%s#%s#%d", sourceIssueKey, sourceCommentID, targetSide)
}
