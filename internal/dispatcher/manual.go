package dispatcher

import (
	"encoding/json"
	"net/http"
)

// manualRequest supports two operator-driven modes: a direct resync of one
// issue, or a conflict resolution naming which side wins.
type manualRequest struct {
	IssueKey           string `json:"issue_key"`
	SourceInstance     string `json:"source_instance"`
	SyncID             string `json:"sync_id"`
	ResolutionDirection string `json:"resolution_direction"`
}

// ManualHandler is operator-triggered (behind auth.Middleware): it either
// forces a single-issue sync or resolves a conflicted pair by choosing one
// side as authoritative.
func ManualHandler(w http.ResponseWriter, r *http.Request) {
	d, err := Get(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "dispatcher unavailable")
		return
	}

	var req manualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	switch {
	case req.IssueKey != "" && req.SourceInstance != "":
		side, err := parseSide(req.SourceInstance)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		result, err := d.reconciler.SyncIssue(r.Context(), req.IssueKey, side)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)

	case req.SyncID != "" && req.ResolutionDirection != "":
		side, err := parseSide(req.ResolutionDirection)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		result, err := d.reconciler.ResolveConflict(r.Context(), req.SyncID, side)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)

	default:
		writeError(w, r, http.StatusBadRequest,
			"request must set either (issue_key, source_instance) or (sync_id, resolution_direction)")
	}
}
