package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/corvid-labs/jira-bridge/internal/model"
	"github.com/corvid-labs/jira-bridge/internal/ratelimit"
)

// sweepPaceOpsPerSecond caps full and retry sweeps to ~100ms per issue.
const sweepPaceOpsPerSecond = 10.0

// SyncIssue is the issue reconciler's entry point: given a source issue key
// and the side it was observed on, it fetches the source issue and either
// creates or updates its peer.
func (r *Reconciler) SyncIssue(ctx context.Context, issueKey string, sourceSide model.Side) (*SyncResult, error) {
	source, err := r.clients.For(sourceSide).GetIssue(ctx, issueKey)
	if err != nil {
		return nil, fmt.Errorf("fetch source issue: %w", err)
	}

	existing, err := r.store.FindIssueRecordByKey(ctx, issueKey, sourceSide)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return r.createPeer(ctx, source, sourceSide, nil)
	}
	return r.updatePeer(ctx, existing, source, sourceSide)
}

// createPeer builds the target issue on the opposite side and persists a
// canonical mapping record. existing is non-nil when a prior attempt (or a
// retry) already left a record under a different sync_id — its sync_id
// embeds both side keys, so the id itself changes the moment the target
// key becomes known, and the record is saved exactly once per outcome
// under that new id via SaveIssueRecordAs so the stale id's row doesn't
// linger orphaned in the table.
func (r *Reconciler) createPeer(ctx context.Context, source *model.Issue, sourceSide model.Side, existing *model.IssueSyncRecord) (*SyncResult, error) {
	targetSide := sourceSide.Other()

	rec := existing
	oldSyncID := ""
	if rec == nil {
		rec = &model.IssueSyncRecord{}
	} else {
		oldSyncID = rec.SyncID
	}

	rec.Status = model.StatusInProgress
	rec.SetKeyFor(sourceSide, source.Key)
	rec.SyncID = model.GenerateSyncID(rec.LeftKey, rec.RightKey)
	rec.SetWatermarkFor(sourceSide, source.Updated)

	target, err := r.clients.For(targetSide).CreateIssue(ctx, source, r.cfg.SyncAssignee)
	if err != nil {
		rec.Status = model.StatusFailed
		rec.ErrorCount++
		msg := err.Error()
		rec.LastError = &msg
		rec.LastSyncTimestamp = time.Now().UTC()
		if saveErr := r.store.SaveIssueRecordAs(ctx, oldSyncID, rec); saveErr != nil {
			return nil, saveErr
		}
		return nil, err
	}

	rec.SetKeyFor(targetSide, target.Key)
	rec.SyncID = model.GenerateSyncID(rec.LeftKey, rec.RightKey)
	rec.SetWatermarkFor(targetSide, target.Updated)
	direction := model.DirectionFromSource(sourceSide)
	rec.LastSyncDirection = &direction
	rec.Status = model.StatusSuccess
	rec.ErrorCount = 0
	rec.LastError = nil
	rec.LastSyncTimestamp = time.Now().UTC()

	if err := r.store.SaveIssueRecordAs(ctx, oldSyncID, rec); err != nil {
		return nil, err
	}
	return &SyncResult{SyncID: rec.SyncID}, nil
}

// updatePeer diffs the source against the target, checks for conflicts,
// and propagates any field/status changes.
func (r *Reconciler) updatePeer(ctx context.Context, rec *model.IssueSyncRecord, source *model.Issue, sourceSide model.Side) (*SyncResult, error) {
	targetSide := sourceSide.Other()
	targetKey := rec.KeyFor(targetSide)
	if targetKey == nil {
		return r.createPeer(ctx, source, sourceSide, rec)
	}

	target, err := r.clients.For(targetSide).GetIssue(ctx, *targetKey)
	if err != nil {
		return nil, fmt.Errorf("fetch target issue: %w", err)
	}

	srcWM := rec.WatermarkFor(sourceSide)
	tgtWM := rec.WatermarkFor(targetSide)
	srcChanged := srcWM == nil || source.Updated.After(*srcWM)
	tgtChanged := tgtWM == nil || target.Updated.After(*tgtWM)

	if srcChanged && tgtChanged {
		rec.Status = model.StatusConflict
		rec.RequiresManualResolution = true
		details := fmt.Sprintf("both sides changed since last sync: source updated %s, target updated %s",
			source.Updated.Format(time.RFC3339), target.Updated.Format(time.RFC3339))
		rec.ConflictDetails = &details
		if err := r.store.SaveIssueRecord(ctx, rec); err != nil {
			return nil, err
		}
		return &SyncResult{SyncID: rec.SyncID, Conflict: true}, nil
	}

	diff := model.Diff(target, source, model.DiffOpts{SyncAssignee: r.cfg.SyncAssignee})
	statusChanged := r.cfg.SyncStatusTransitions && source.Status != target.Status

	var warning string
	if diff.Empty() && !statusChanged {
		rec.Status = model.StatusSuccess
		rec.SetWatermarkFor(sourceSide, source.Updated)
		rec.SetWatermarkFor(targetSide, target.Updated)
		rec.LastSyncTimestamp = time.Now().UTC()
		if err := r.store.SaveIssueRecord(ctx, rec); err != nil {
			return nil, err
		}
		return &SyncResult{SyncID: rec.SyncID}, nil
	}

	if !diff.Empty() {
		if err := r.clients.For(targetSide).UpdateIssue(ctx, *targetKey, diff); err != nil {
			rec.Status = model.StatusFailed
			rec.ErrorCount++
			msg := err.Error()
			rec.LastError = &msg
			_ = r.store.SaveIssueRecord(ctx, rec)
			return nil, err
		}
	}

	if statusChanged {
		ok, err := r.clients.For(targetSide).TransitionTo(ctx, *targetKey, source.Status)
		if err != nil {
			log.Warn().Err(err).Str("target_key", *targetKey).Msg("status transition failed, field update still committed")
		} else if !ok {
			warning = fmt.Sprintf("no transition to status %q available on target", source.Status)
			log.Warn().Str("target_key", *targetKey).Str("status", source.Status).Msg(warning)
		}
	}

	refreshed, err := r.clients.For(targetSide).GetIssue(ctx, *targetKey)
	if err != nil {
		return nil, fmt.Errorf("refetch target issue: %w", err)
	}

	rec.SetWatermarkFor(sourceSide, source.Updated)
	rec.SetWatermarkFor(targetSide, refreshed.Updated)
	direction := model.DirectionFromSource(sourceSide)
	rec.LastSyncDirection = &direction
	rec.Status = model.StatusSuccess
	rec.ErrorCount = 0
	rec.LastError = nil
	rec.LastSyncTimestamp = time.Now().UTC()

	if err := r.store.SaveIssueRecord(ctx, rec); err != nil {
		return nil, err
	}
	return &SyncResult{SyncID: rec.SyncID, Warning: warning}, nil
}

// ResolveConflict loads a conflicted record, treats the chosen side as the
// source, clears the conflict flags, and re-runs Update-Peer. The
// non-chosen side's watermark is advanced to its current state first, so
// the edit being discarded doesn't immediately re-trip the same
// both-sides-changed check that produced the conflict.
func (r *Reconciler) ResolveConflict(ctx context.Context, syncID string, resolutionSide model.Side) (*SyncResult, error) {
	rec, err := r.store.GetIssueRecord(ctx, syncID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("no sync record for %q", syncID)
	}
	if rec.Status != model.StatusConflict {
		return nil, fmt.Errorf("sync record %q is not in conflict", syncID)
	}

	sourceKey := rec.KeyFor(resolutionSide)
	if sourceKey == nil {
		return nil, fmt.Errorf("sync record %q has no key on the chosen side", syncID)
	}

	rec.Status = model.StatusInProgress
	rec.RequiresManualResolution = false
	rec.ConflictDetails = nil
	if err := r.store.SaveIssueRecord(ctx, rec); err != nil {
		return nil, err
	}

	source, err := r.clients.For(resolutionSide).GetIssue(ctx, *sourceKey)
	if err != nil {
		return nil, fmt.Errorf("fetch resolution source issue: %w", err)
	}

	discardSide := resolutionSide.Other()
	if discardKey := rec.KeyFor(discardSide); discardKey != nil {
		if discarded, err := r.clients.For(discardSide).GetIssue(ctx, *discardKey); err == nil {
			rec.SetWatermarkFor(discardSide, discarded.Updated)
		}
	}

	return r.updatePeer(ctx, rec, source, resolutionSide)
}

// FullSweep pages through every issue in one side's project and invokes
// SyncIssue for each, paced at sweepPaceOpsPerSecond. A Right-side sweep
// skips issues that already have a mapping record, since those are kept
// current by the Left sweep and by webhooks.
func (r *Reconciler) FullSweep(ctx context.Context, side model.Side) (*SweepSummary, error) {
	summary := &SweepSummary{}
	pacer := ratelimit.NewPacer(sweepPaceOpsPerSecond)
	client := r.clients.For(side)

	startAt := 0
	for {
		keys, total, err := client.SearchKeys(ctx, startAt)
		if err != nil {
			return summary, err
		}
		for _, key := range keys {
			if side == model.Right {
				existing, err := r.store.FindIssueRecordByKey(ctx, key, model.Right)
				if err != nil {
					return summary, err
				}
				if existing != nil {
					summary.Skipped++
					continue
				}
			}

			if err := pacer.Wait(ctx); err != nil {
				return summary, err
			}

			summary.Processed++
			if _, err := r.SyncIssue(ctx, key, side); err != nil {
				summary.Failed++
				log.Warn().Err(err).Str("key", key).Msg("full sweep: sync failed")
				continue
			}
			summary.Succeeded++
		}

		startAt += len(keys)
		if len(keys) == 0 || startAt >= total {
			break
		}
	}
	return summary, nil
}

// RetrySweep re-invokes SyncIssue for every failed record under the
// configured retry budget, paced by retry_delay_seconds.
func (r *Reconciler) RetrySweep(ctx context.Context) (*SweepSummary, error) {
	summary := &SweepSummary{}
	records, err := r.store.ListIssueRecordsByStatus(ctx, model.StatusFailed)
	if err != nil {
		return summary, err
	}

	for _, rec := range records {
		if rec.ErrorCount >= r.cfg.MaxRetries {
			summary.Skipped++
			continue
		}

		sourceSide, key := retrySource(rec)
		if key == nil {
			summary.Skipped++
			continue
		}

		summary.Processed++
		if _, err := r.SyncIssue(ctx, *key, sourceSide); err != nil {
			summary.Failed++
			log.Warn().Err(err).Str("key", *key).Msg("retry sweep: sync failed")
		} else {
			summary.Succeeded++
		}

		select {
		case <-time.After(r.cfg.RetryDelay()):
		case <-ctx.Done():
			return summary, ctx.Err()
		}
	}
	return summary, nil
}

// retrySource picks the source side for a retry: last_sync_direction's
// source if known, else whichever side's key is populated.
func retrySource(rec *model.IssueSyncRecord) (model.Side, *string) {
	if rec.LastSyncDirection != nil {
		side := rec.LastSyncDirection.Source()
		if key := rec.KeyFor(side); key != nil {
			return side, key
		}
	}
	if rec.LeftKey != nil {
		return model.Left, rec.LeftKey
	}
	return model.Right, rec.RightKey
}
