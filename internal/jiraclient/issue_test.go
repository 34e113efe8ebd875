package jiraclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corvid-labs/jira-bridge/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:       srv.URL,
		Username:      "bot",
		APIToken:      "token",
		ProjectKey:    "RPROJ",
		InstanceLabel: "left",
	})
}

func TestGetIssue_FlattensDescriptionAndCustomFields(t *testing.T) {
	body := map[string]any{
		"key": "PROJ-1",
		"fields": map[string]any{
			"summary": "Hello",
			"description": map[string]any{
				"type": "doc", "version": 1,
				"content": []any{
					map[string]any{"type": "paragraph", "content": []any{
						map[string]any{"type": "text", "text": "First"},
					}},
					map[string]any{"type": "paragraph", "content": []any{
						map[string]any{"type": "text", "text": "Second"},
					}},
				},
			},
			"issuetype":         map[string]any{"name": "Task"},
			"status":            map[string]any{"name": "To Do"},
			"priority":          map[string]any{"name": "Medium"},
			"labels":            []string{"a", "b"},
			"created":           "2026-01-01T00:00:00.000+0000",
			"updated":           "2026-01-02T00:00:00.000+0000",
			"customfield_10001": "widget",
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(raw)
	})

	issue, err := client.GetIssue(context.Background(), "PROJ-1")
	if err != nil {
		t.Fatal(err)
	}
	if issue.Description == nil || *issue.Description != "First Second" {
		t.Fatalf("expected flattened description, got %v", issue.Description)
	}
	if issue.CustomFields["customfield_10001"] != "widget" {
		t.Fatalf("expected custom field passthrough, got %v", issue.CustomFields)
	}
	if issue.Summary != "Hello" || issue.Status != "To Do" {
		t.Fatalf("unexpected issue: %+v", issue)
	}
}

func TestCreateSyncComment_RendersMarker(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"99","author":{"displayName":"bot"},"created":"2026-01-01T00:00:00.000+0000","updated":"2026-01-01T00:00:00.000+0000"}`))
	})

	source := model.Comment{
		ID:         "10042",
		Body:       "hi there",
		AuthorName: "Jane Doe",
	}

	comment, err := client.CreateSyncComment(context.Background(), "RPROJ-5", source, "left")
	if err != nil {
		t.Fatal(err)
	}
	if comment.ID != "99" {
		t.Fatalf("unexpected comment id: %+v", comment)
	}
	posted, _ := json.Marshal(gotBody)
	if !strings.Contains(string(posted), "[JIRA-SYNC] Source ID: 10042") {
		t.Fatalf("expected posted body to carry the sync marker, got %s", posted)
	}
}

func TestTransitionTo_NoMatchReturnsFalse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transitions":[{"id":"1","to":{"name":"Done"}}]}`))
	})

	ok, err := client.TransitionTo(context.Background(), "PROJ-1", "In Progress")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no match")
	}
}

func TestTransitionTo_CaseInsensitiveMatch(t *testing.T) {
	var transitioned bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			transitioned = true
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transitions":[{"id":"31","to":{"name":"In Progress"}}]}`))
	})

	ok, err := client.TransitionTo(context.Background(), "PROJ-1", "in progress")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || !transitioned {
		t.Fatal("expected matching transition to be invoked")
	}
}
