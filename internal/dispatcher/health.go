package dispatcher

import (
	"fmt"
	"net/http"
)

// healthSummary is a configuration summary safe to expose publicly: no
// credentials, tokens, or secrets.
type healthSummary struct {
	Ready                 bool   `json:"ready"`
	LeftProjectKey        string `json:"left_project_key"`
	RightProjectKey       string `json:"right_project_key"`
	SyncIntervalSeconds   int    `json:"sync_interval_seconds"`
	MaxRetries            int    `json:"max_retries"`
	RetryDelaySeconds     int    `json:"retry_delay_seconds"`
	SyncStatusTransitions bool   `json:"sync_status_transitions"`
	SyncAssignee          bool   `json:"sync_assignee"`
	SyncComments          bool   `json:"sync_comments"`
}

// HealthHandler reports readiness and a non-secret configuration summary.
// Readiness is a live DB probe, not just whether the singleton was
// constructed successfully at some point in the past.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	d, err := Get(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ready": false,
			"error": err.Error(),
		})
		return
	}

	if err := d.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ready": false,
			"error": fmt.Sprintf("database unreachable: %v", err),
		})
		return
	}

	writeJSON(w, http.StatusOK, healthSummary{
		Ready:                 true,
		LeftProjectKey:        d.cfg.Left.ProjectKey,
		RightProjectKey:       d.cfg.Right.ProjectKey,
		SyncIntervalSeconds:   d.cfg.SyncIntervalSeconds,
		MaxRetries:            d.cfg.MaxRetries,
		RetryDelaySeconds:     d.cfg.RetryDelaySeconds,
		SyncStatusTransitions: d.cfg.SyncStatusTransitions,
		SyncAssignee:          d.cfg.SyncAssignee,
		SyncComments:          d.cfg.SyncComments,
	})
}
