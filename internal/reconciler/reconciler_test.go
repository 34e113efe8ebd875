package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/corvid-labs/jira-bridge/internal/config"
	"github.com/corvid-labs/jira-bridge/internal/db"
	"github.com/corvid-labs/jira-bridge/internal/jiraclient"
	"github.com/corvid-labs/jira-bridge/internal/store"
)

// fakeJira is an in-memory stand-in for one Jira-like instance, addressed
// over httptest so the reconciler exercises the real jiraclient transport
// end to end rather than a mocked interface.
type fakeJira struct {
	mu       sync.Mutex
	issues   map[string]map[string]any
	comments map[string][]map[string]any
	nextID   int
	nextCID  int
}

func newFakeJira() *fakeJira {
	return &fakeJira{
		issues:   map[string]map[string]any{},
		comments: map[string][]map[string]any{},
	}
}

func adfParagraph(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []map[string]any{
			{"type": "paragraph", "content": []map[string]any{
				{"type": "text", "text": text},
			}},
		},
	}
}

func (f *fakeJira) server(t *testing.T, projectPrefix string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/rest/api/3/search", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			StartAt    int `json:"startAt"`
			MaxResults int `json:"maxResults"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		keys := make([]string, 0, len(f.issues))
		for k := range f.issues {
			keys = append(keys, k)
		}
		f.mu.Unlock()
		sortKeys(keys)

		end := req.StartAt + req.MaxResults
		if end > len(keys) {
			end = len(keys)
		}
		page := []map[string]any{}
		if req.StartAt < len(keys) {
			for _, k := range keys[req.StartAt:end] {
				page = append(page, map[string]any{"key": k, "fields": map[string]any{}})
			}
		}
		writeJSONTest(w, map[string]any{
			"startAt": req.StartAt, "maxResults": req.MaxResults,
			"total": len(keys), "issues": page,
		})
	})

	mux.HandleFunc("/rest/api/3/issue", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Fields map[string]any `json:"fields"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.nextID++
		key := fmt.Sprintf("%s-%d", projectPrefix, f.nextID)
		req.Fields["created"] = nowStamp()
		req.Fields["updated"] = nowStamp()
		req.Fields["status"] = map[string]any{"name": "To Do"}
		f.issues[key] = req.Fields
		f.mu.Unlock()
		writeJSONTest(w, map[string]any{"key": key})
	})

	mux.HandleFunc("/rest/api/3/issue/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/rest/api/3/issue/")
		parts := strings.SplitN(rest, "/", 2)
		key := parts[0]

		// /rest/api/3/issue/{key}/comment[/id] and .../transitions
		if len(parts) == 2 {
			switch {
			case parts[1] == "comment" || strings.HasPrefix(parts[1], "comment/"):
				f.handleComment(w, r, key, strings.TrimPrefix(parts[1], "comment"))
				return
			case parts[1] == "transitions":
				f.handleTransitions(w, r, key)
				return
			}
		}

		switch r.Method {
		case http.MethodGet:
			f.mu.Lock()
			fields, ok := f.issues[key]
			comments := append([]map[string]any{}, f.comments[key]...)
			f.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			out := map[string]any{}
			for k, v := range fields {
				out[k] = v
			}
			out["comment"] = map[string]any{"comments": commentsToWire(comments)}
			writeJSONTest(w, map[string]any{"key": key, "fields": out})
		case http.MethodPut:
			var req struct {
				Fields map[string]any `json:"fields"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.mu.Lock()
			issue, ok := f.issues[key]
			if !ok {
				f.mu.Unlock()
				w.WriteHeader(http.StatusNotFound)
				return
			}
			for k, v := range req.Fields {
				issue[k] = v
			}
			issue["updated"] = nextUpdatedTimestamp(issue["updated"])
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	return httptest.NewServer(mux)
}

func (f *fakeJira) handleComment(w http.ResponseWriter, r *http.Request, issueKey, idSuffix string) {
	id := strings.TrimPrefix(idSuffix, "/")

	switch r.Method {
	case http.MethodGet:
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, c := range f.comments[issueKey] {
			if c["id"] == id {
				writeJSONTest(w, c)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)

	case http.MethodPost:
		var req struct {
			Body map[string]any `json:"body"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.nextCID++
		cid := fmt.Sprintf("c%d", f.nextCID)
		c := map[string]any{
			"id": cid, "body": req.Body,
			"author":  map[string]any{"displayName": "Test Bot", "emailAddress": "bot@example.com"},
			"created": nowStamp(), "updated": nowStamp(),
		}
		f.comments[issueKey] = append(f.comments[issueKey], c)
		f.mu.Unlock()
		writeJSONTest(w, c)

	case http.MethodPut:
		var req struct {
			Body map[string]any `json:"body"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		for _, c := range f.comments[issueKey] {
			if c["id"] == id {
				c["body"] = req.Body
				c["updated"] = nextUpdatedTimestamp(c["updated"])
			}
		}
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		f.mu.Lock()
		kept := f.comments[issueKey][:0]
		found := false
		for _, c := range f.comments[issueKey] {
			if c["id"] == id {
				found = true
				continue
			}
			kept = append(kept, c)
		}
		f.comments[issueKey] = kept
		f.mu.Unlock()
		if !found {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleTransitions offers one transition per status registered for the
// issue via allowTransitionTo (skipping the issue's current status), with
// ids "1", "2", ... in registration order; POSTing one of those ids moves
// the issue to that status.
func (f *fakeJira) handleTransitions(w http.ResponseWriter, r *http.Request, key string) {
	switch r.Method {
	case http.MethodGet:
		f.mu.Lock()
		status, _ := f.issues[key]["status"].(map[string]any)
		f.mu.Unlock()
		current, _ := status["name"].(string)
		// Offer transitions to every status this fake has ever seen requested,
		// tracked via the same issue's pending statuses slice.
		f.mu.Lock()
		pending, _ := f.issues[key]["__pending_transitions"].([]string)
		f.mu.Unlock()
		transitions := []map[string]any{}
		for i, name := range pending {
			if name == current {
				continue
			}
			transitions = append(transitions, map[string]any{
				"id": fmt.Sprintf("%d", i+1),
				"to": map[string]any{"name": name},
			})
		}
		writeJSONTest(w, map[string]any{"transitions": transitions})
	case http.MethodPost:
		var req struct {
			Transition struct {
				ID string `json:"id"`
			} `json:"transition"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		pending, _ := f.issues[key]["__pending_transitions"].([]string)
		var idx int
		fmt.Sscanf(req.Transition.ID, "%d", &idx)
		if idx >= 1 && idx <= len(pending) {
			f.issues[key]["status"] = map[string]any{"name": pending[idx-1]}
			f.issues[key]["updated"] = nextUpdatedTimestamp(f.issues[key]["updated"])
		}
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// allowTransitionTo registers statusName as reachable from the issue's
// current state, so a later TransitionTo call in the reconciler succeeds.
func (f *fakeJira) allowTransitionTo(key, statusName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pending, _ := f.issues[key]["__pending_transitions"].([]string)
	f.issues[key]["__pending_transitions"] = append(pending, statusName)
}

func commentsToWire(comments []map[string]any) []map[string]any {
	return comments
}

func writeJSONTest(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func sortKeys(keys []string) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// nextUpdatedTimestamp returns a timestamp strictly after prev, so
// successive fake-server writes are distinguishable to the reconciler's
// watermark comparisons even when they land within the same millisecond.
func nextUpdatedTimestamp(prev any) string {
	now := time.Now().UTC()
	if s, ok := prev.(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil && !now.After(t) {
			now = t.Add(time.Millisecond)
		}
	}
	return now.Format(time.RFC3339Nano)
}

// getTestReconciler wires a real Postgres-backed store against two fake
// Jira instances; skips when no TEST_DATABASE_URL is configured.
func getTestReconciler(t *testing.T) (rec *Reconciler, left, right *fakeJira) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration tests")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, dsn, db.DefaultPoolConfig())
	if err != nil {
		t.Fatalf("failed to open cleanup pool: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM comment_sync_record"); err != nil {
		t.Fatalf("failed to clean comment_sync_record: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM issue_sync_record"); err != nil {
		t.Fatalf("failed to clean issue_sync_record: %v", err)
	}
	pool.Close()

	st, err := store.Open(ctx, dsn, db.DefaultPoolConfig())
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(st.Close)

	left = newFakeJira()
	right = newFakeJira()
	leftSrv := left.server(t, "PROJ")
	rightSrv := right.server(t, "RPROJ")
	t.Cleanup(leftSrv.Close)
	t.Cleanup(rightSrv.Close)

	clients := Clients{
		Left:  jiraclient.New(jiraclient.Config{BaseURL: leftSrv.URL, ProjectKey: "PROJ", InstanceLabel: "left"}),
		Right: jiraclient.New(jiraclient.Config{BaseURL: rightSrv.URL, ProjectKey: "RPROJ", InstanceLabel: "right"}),
	}

	cfg := config.DefaultConfig()
	cfg.RetryDelaySeconds = 0
	return New(clients, st, cfg), left, right
}

// seedComment injects a comment directly into the fake, wrapped in a single
// ADF paragraph and bypassing the HTTP create path, so the author/body match
// exactly what the test asserts on.
func (f *fakeJira) seedComment(issueKey, commentID, authorName, authorEmail, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[issueKey] = append(f.comments[issueKey], map[string]any{
		"id":   commentID,
		"body": adfParagraph(body),
		"author": map[string]any{
			"displayName": authorName, "emailAddress": authorEmail,
		},
		"created": nowStamp(), "updated": nowStamp(),
	})
}

func (f *fakeJira) commentBody(issueKey, commentID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.comments[issueKey] {
		if c["id"] == commentID {
			return flattenParagraph(c["body"]), true
		}
	}
	return "", false
}

// flattenParagraph extracts every "text" leaf from an ADF-shaped document.
// It tolerates both literal Go values (nested []map[string]any, as built by
// adfParagraph) and the generic []interface{}/map[string]interface{} shape
// produced by decoding the same structure back out of JSON.
func flattenParagraph(node any) string {
	var out strings.Builder
	var walk func(any)
	walk = func(n any) {
		switch v := n.(type) {
		case map[string]any:
			if v["type"] == "text" {
				if text, ok := v["text"].(string); ok {
					out.WriteString(text)
				}
				return
			}
			if content, ok := v["content"]; ok {
				walk(content)
			}
		case []any:
			for _, item := range v {
				walk(item)
			}
		case []map[string]any:
			for _, item := range v {
				walk(item)
			}
		}
	}
	walk(node)
	return out.String()
}

func (f *fakeJira) commentCount(issueKey string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.comments[issueKey])
}

func (f *fakeJira) seedIssue(key, summary, issueType, priority string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues[key] = map[string]any{
		"summary": summary, "issuetype": map[string]any{"name": issueType},
		"priority": map[string]any{"name": priority}, "status": map[string]any{"name": "To Do"},
		"created": nowStamp(), "updated": nowStamp(),
	}
}
