package dispatcher

import (
	"fmt"
	"net/http"

	"github.com/corvid-labs/jira-bridge/internal/model"
)

// ScheduledHandler runs a full or retry sweep on demand. The sync_type
// query parameter selects the sweep; full_sync additionally takes a side
// parameter naming which instance to page through.
func ScheduledHandler(w http.ResponseWriter, r *http.Request) {
	d, err := Get(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "dispatcher unavailable")
		return
	}

	switch syncType := r.URL.Query().Get("sync_type"); syncType {
	case "full_sync":
		side, err := parseSide(r.URL.Query().Get("side"))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		summary, err := d.reconciler.FullSweep(r.Context(), side)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, summary)

	case "retry_failed":
		summary, err := d.reconciler.RetrySweep(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, summary)

	default:
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown sync_type %q", syncType))
	}
}

func parseSide(raw string) (model.Side, error) {
	switch raw {
	case "left", "1", "":
		return model.Left, nil
	case "right", "2":
		return model.Right, nil
	default:
		return 0, fmt.Errorf("unknown side %q", raw)
	}
}
