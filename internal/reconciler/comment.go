package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/corvid-labs/jira-bridge/internal/jiraclient"
	"github.com/corvid-labs/jira-bridge/internal/model"
	"github.com/corvid-labs/jira-bridge/internal/syncmark"
)

// CommentEvent is the kind of change observed on a source comment.
type CommentEvent string

const (
	CommentCreated CommentEvent = "created"
	CommentUpdated CommentEvent = "updated"
	CommentDeleted CommentEvent = "deleted"
)

// SyncComment is the comment reconciler's entry point: propagates a
// public-comment create/update/delete to the peer issue, with loop
// suppression.
func (r *Reconciler) SyncComment(ctx context.Context, issueKey, commentID string, sourceSide model.Side, event CommentEvent) (*SyncResult, error) {
	issueRec, err := r.store.FindIssueRecordByKey(ctx, issueKey, sourceSide)
	if err != nil {
		return nil, err
	}
	if issueRec == nil {
		// No pair exists yet; nothing to propagate to.
		return &SyncResult{}, nil
	}

	targetSide := sourceSide.Other()
	targetIssueKey := issueRec.KeyFor(targetSide)
	if targetIssueKey == nil {
		return &SyncResult{}, nil
	}

	existing, err := r.store.FindCommentBySource(ctx, issueKey, commentID, targetSide)
	if err != nil {
		return nil, err
	}

	if existing != nil && existing.TargetCommentID != nil && event == CommentCreated {
		return &SyncResult{SyncID: existing.SyncID}, nil
	}

	switch event {
	case CommentDeleted:
		return r.syncCommentDeleted(ctx, existing, issueKey, commentID, sourceSide, targetSide, *targetIssueKey)
	case CommentCreated:
		return r.syncCommentCreated(ctx, issueKey, commentID, sourceSide, targetSide, *targetIssueKey)
	case CommentUpdated:
		if existing == nil {
			return r.syncCommentCreated(ctx, issueKey, commentID, sourceSide, targetSide, *targetIssueKey)
		}
		return r.syncCommentUpdated(ctx, existing, issueKey, commentID, sourceSide, targetSide, *targetIssueKey)
	default:
		return nil, fmt.Errorf("unknown comment event %q", event)
	}
}

func (r *Reconciler) syncCommentCreated(ctx context.Context, issueKey, commentID string, sourceSide, targetSide model.Side, targetIssueKey string) (*SyncResult, error) {
	source, err := r.clients.For(sourceSide).GetComment(ctx, issueKey, commentID)
	if err != nil {
		return nil, fmt.Errorf("fetch source comment: %w", err)
	}
	if !source.IsPublic {
		return &SyncResult{}, nil
	}
	if syncmark.IsSyncComment(source.Body) {
		return &SyncResult{}, nil
	}

	sourceClient := r.clients.For(sourceSide)
	mirrored, err := r.clients.For(targetSide).CreateSyncComment(ctx, targetIssueKey, *source, sourceClient.InstanceLabel())
	if err != nil {
		return nil, fmt.Errorf("create sync comment: %w", err)
	}

	rec := &model.CommentSyncRecord{
		SyncID:            model.GenerateCommentSyncID(issueKey, commentID, targetSide),
		IssueKey:          issueKey,
		SourceCommentID:   commentID,
		TargetCommentID:   &mirrored.ID,
		SourceSide:        sourceSide,
		TargetSide:        targetSide,
		LastSyncTimestamp: time.Now().UTC(),
		SyncDirection:     model.DirectionFromSource(sourceSide),
		Status:            model.StatusSuccess,
	}
	if err := r.store.SaveCommentRecord(ctx, rec); err != nil {
		return nil, err
	}
	return &SyncResult{SyncID: rec.SyncID}, nil
}

func (r *Reconciler) syncCommentUpdated(ctx context.Context, existing *model.CommentSyncRecord, issueKey, commentID string, sourceSide, targetSide model.Side, targetIssueKey string) (*SyncResult, error) {
	source, err := r.clients.For(sourceSide).GetComment(ctx, issueKey, commentID)
	if err != nil {
		return nil, fmt.Errorf("fetch source comment: %w", err)
	}
	if syncmark.IsSyncComment(source.Body) {
		return &SyncResult{}, nil
	}
	if existing.TargetCommentID == nil {
		return r.syncCommentCreated(ctx, issueKey, commentID, sourceSide, targetSide, targetIssueKey)
	}

	body := jiraclient.RenderSyncBody(*source, r.clients.For(sourceSide).InstanceLabel(), true)
	if err := r.clients.For(targetSide).UpdateComment(ctx, targetIssueKey, *existing.TargetCommentID, body); err != nil {
		return nil, fmt.Errorf("update sync comment: %w", err)
	}

	existing.LastSyncTimestamp = time.Now().UTC()
	existing.SyncDirection = model.DirectionFromSource(sourceSide)
	existing.Status = model.StatusSuccess
	if err := r.store.SaveCommentRecord(ctx, existing); err != nil {
		return nil, err
	}
	return &SyncResult{SyncID: existing.SyncID}, nil
}

func (r *Reconciler) syncCommentDeleted(ctx context.Context, existing *model.CommentSyncRecord, issueKey, commentID string, sourceSide, targetSide model.Side, targetIssueKey string) (*SyncResult, error) {
	if existing == nil || existing.TargetCommentID == nil {
		return &SyncResult{}, nil
	}

	if err := r.clients.For(targetSide).DeleteComment(ctx, targetIssueKey, *existing.TargetCommentID); err != nil {
		return nil, fmt.Errorf("delete sync comment: %w", err)
	}

	existing.Status = model.StatusSuccess
	existing.LastSyncTimestamp = time.Now().UTC()
	if err := r.store.SaveCommentRecord(ctx, existing); err != nil {
		return nil, err
	}
	return &SyncResult{SyncID: existing.SyncID}, nil
}
