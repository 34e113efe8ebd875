package dispatcher

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/corvid-labs/jira-bridge/internal/model"
	"github.com/corvid-labs/jira-bridge/internal/reconciler"
)

// webhookEnvelope is the subset of the inbound payload the dispatcher
// needs to route the event.
type webhookEnvelope struct {
	WebhookEvent string `json:"webhookEvent"`
	Issue        struct {
		Key string `json:"key"`
	} `json:"issue"`
	Comment struct {
		ID string `json:"id"`
	} `json:"comment"`
}

// recognized webhookEvent values that the dispatcher routes; everything
// else is accepted but ignored.
var issueEvents = map[string]bool{
	"jira:issue_created": true,
	"jira:issue_updated": true,
	"jira:issue_deleted": true,
}

var commentEvents = map[string]reconciler.CommentEvent{
	"comment_created": reconciler.CommentCreated,
	"comment_updated": reconciler.CommentUpdated,
	"comment_deleted": reconciler.CommentDeleted,
}

// WebhookHandler verifies the HMAC-SHA256 signature, determines the
// originating side, and routes to the issue or comment reconciler.
func WebhookHandler(sidePathHint model.Side, hasPathHint bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := Get(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "dispatcher unavailable")
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "failed to read request body")
			return
		}

		if !verifySignature(body, r.Header.Get("X-Hub-Signature-256"), d.cfg.WebhookSecret) {
			writeError(w, r, http.StatusUnauthorized, "invalid signature")
			return
		}

		var env webhookEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			writeError(w, r, http.StatusBadRequest, "malformed payload")
			return
		}

		side := detectSide(r, d.clients, sidePathHint, hasPathHint)

		switch {
		case issueEvents[env.WebhookEvent]:
			if env.Issue.Key == "" {
				writeError(w, r, http.StatusBadRequest, "missing issue key")
				return
			}
			result, err := d.reconciler.SyncIssue(r.Context(), env.Issue.Key, side)
			if err != nil {
				log.Error().Err(err).Str("issue_key", env.Issue.Key).Msg("webhook: issue sync failed")
				writeError(w, r, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"message": "accepted", "sync_id": result.SyncID})

		case commentEvents[env.WebhookEvent] != "":
			if env.Issue.Key == "" || env.Comment.ID == "" {
				writeError(w, r, http.StatusBadRequest, "missing issue key or comment id")
				return
			}
			event := commentEvents[env.WebhookEvent]
			result, err := d.reconciler.SyncComment(r.Context(), env.Issue.Key, env.Comment.ID, side, event)
			if err != nil {
				log.Error().Err(err).Str("issue_key", env.Issue.Key).Msg("webhook: comment sync failed")
				writeError(w, r, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"message": "accepted", "sync_id": result.SyncID})

		default:
			writeJSON(w, http.StatusOK, map[string]any{"message": "ignored"})
		}
	}
}

func verifySignature(body []byte, header, secret string) bool {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := mac.Sum(nil)
	return hmac.Equal(got, want)
}

// detectSide resolves the originating instance: path suffix, then Origin
// header match, then X-Jira-Instance header, defaulting to Left with a
// warning.
func detectSide(r *http.Request, clients reconciler.Clients, pathHint model.Side, hasPathHint bool) model.Side {
	if hasPathHint {
		return pathHint
	}

	if origin := r.Header.Get("Origin"); origin != "" {
		if origin == clients.Left.BaseURL() {
			return model.Left
		}
		if origin == clients.Right.BaseURL() {
			return model.Right
		}
	}

	switch r.Header.Get("X-Jira-Instance") {
	case "1":
		return model.Left
	case "2":
		return model.Right
	}

	log.Warn().Msg("webhook: could not determine originating side, defaulting to left")
	return model.Left
}
