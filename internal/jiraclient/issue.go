package jiraclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/corvid-labs/jira-bridge/internal/model"
)

// knownFieldNames excludes the customfield_* passthrough from the set of
// names the wire struct already types explicitly.
var knownFieldNames = map[string]bool{
	"summary": true, "description": true, "issuetype": true, "status": true,
	"priority": true, "assignee": true, "reporter": true, "labels": true,
	"components": true, "fixVersions": true, "resolution": true,
	"created": true, "updated": true, "comment": true,
}

// GetIssue fetches an issue with all fields and its public comments in one
// round-trip.
func (c *Client) GetIssue(ctx context.Context, key string) (*model.Issue, error) {
	raw, err := c.doRaw(ctx, "GET", fmt.Sprintf("/rest/api/3/issue/%s?expand=names", key), nil)
	if err != nil {
		return nil, err
	}
	return parseWireIssue(raw)
}

func parseWireIssue(raw []byte) (*model.Issue, error) {
	var wi wireIssue
	if err := json.Unmarshal(raw, &wi); err != nil {
		return nil, fmt.Errorf("decode issue: %w", err)
	}

	var envelope struct {
		Fields map[string]json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode issue fields: %w", err)
	}

	custom := map[string]any{}
	for name, rawVal := range envelope.Fields {
		if !strings.HasPrefix(name, "customfield_") {
			continue
		}
		var v any
		if err := json.Unmarshal(rawVal, &v); err != nil {
			continue
		}
		if v == nil {
			continue
		}
		custom[name] = v
	}

	issue := &model.Issue{
		Key:          wi.Key,
		Summary:      wi.Fields.Summary,
		IssueType:    wi.Fields.IssueType.Name,
		Status:       wi.Fields.Status.Name,
		Priority:     wi.Fields.Priority.Name,
		Labels:       wi.Fields.Labels,
		CustomFields: custom,
		Created:      wi.Fields.Created,
		Updated:      wi.Fields.Updated,
	}

	if wi.Fields.Description != nil {
		if text := flattenRichText(wi.Fields.Description); text != "" {
			issue.Description = &text
		}
	}
	if wi.Fields.Assignee != nil {
		issue.Assignee = &wi.Fields.Assignee.EmailAddress
	}
	if wi.Fields.Reporter != nil {
		issue.Reporter = wi.Fields.Reporter.EmailAddress
	}
	if wi.Fields.Resolution != nil {
		issue.Resolution = &wi.Fields.Resolution.Name
	}
	for _, comp := range wi.Fields.Components {
		issue.Components = append(issue.Components, comp.Name)
	}
	for _, fv := range wi.Fields.FixVersions {
		issue.FixVersions = append(issue.FixVersions, fv.Name)
	}

	if wi.Fields.Comment != nil {
		for _, wc := range wi.Fields.Comment.Comments {
			if !wc.isPublic() {
				continue
			}
			comment := model.Comment{
				ID:          wc.ID,
				AuthorName:  wc.Author.DisplayName,
				Created:     wc.Created,
				Updated:     wc.Updated,
				IsPublic:    true,
			}
			if wc.Author.EmailAddress != "" {
				email := wc.Author.EmailAddress
				comment.AuthorEmail = &email
			}
			comment.Body = flattenRichText(wc.Body)
			issue.Comments = append(issue.Comments, comment)
		}
	}

	return issue, nil
}

// CreateIssue creates a peer issue from a normalized Issue. Status is never
// set on create; the peer starts in its workflow's initial state.
func (c *Client) CreateIssue(ctx context.Context, issue *model.Issue, syncAssignee bool) (*model.Issue, error) {
	fields := map[string]any{
		"project":   map[string]any{"key": c.cfg.ProjectKey},
		"summary":   issue.Summary,
		"issuetype": map[string]any{"name": issue.IssueType},
		"priority":  map[string]any{"name": issue.Priority},
	}
	if issue.Description != nil {
		fields["description"] = inflateRichText(*issue.Description)
	}
	if len(issue.Labels) > 0 {
		fields["labels"] = issue.Labels
	}
	if len(issue.Components) > 0 {
		fields["components"] = namedRefs(issue.Components)
	}
	if len(issue.FixVersions) > 0 {
		fields["fixVersions"] = namedRefs(issue.FixVersions)
	}
	if syncAssignee && issue.Assignee != nil {
		fields["assignee"] = map[string]any{"emailAddress": *issue.Assignee}
	}
	for k, v := range issue.CustomFields {
		fields[k] = v
	}

	raw, err := c.doRaw(ctx, "POST", "/rest/api/3/issue", wireCreateIssueRequest{Fields: fields})
	if err != nil {
		return nil, err
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("decode create response: %w", err)
	}
	return c.GetIssue(ctx, created.Key)
}

// UpdateIssue applies a partial field update. Status is never part of this
// call.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields model.FieldSet) error {
	if fields.Empty() {
		return nil
	}
	payload := map[string]any{}
	for k, v := range fields {
		switch k {
		case "description":
			text, _ := v.(*string)
			if text == nil {
				payload[k] = nil
				continue
			}
			payload[k] = inflateRichText(*text)
		case "labels", "components", "fix_versions":
			payload[wireFieldName(k)] = namedOrPlain(k, v)
		case "assignee":
			email, _ := v.(*string)
			if email == nil {
				payload[k] = nil
				continue
			}
			payload[k] = map[string]any{"emailAddress": *email}
		case "priority":
			name, _ := v.(string)
			payload[k] = map[string]any{"name": name}
		default:
			payload[k] = v
		}
	}

	_, err := c.doRaw(ctx, "PUT", fmt.Sprintf("/rest/api/3/issue/%s", key), wireUpdateIssueRequest{Fields: payload})
	return err
}

func wireFieldName(internal string) string {
	if internal == "fix_versions" {
		return "fixVersions"
	}
	return internal
}

func namedOrPlain(key string, v any) any {
	if key == "labels" {
		return v
	}
	names, ok := v.([]string)
	if !ok {
		return v
	}
	return namedRefs(names)
}

func namedRefs(names []string) []map[string]any {
	refs := make([]map[string]any, 0, len(names))
	for _, n := range names {
		refs = append(refs, map[string]any{"name": n})
	}
	return refs
}

const searchPageSize = 50

// SearchKeys pages through every issue key in this side's project, via the
// `POST search` endpoint. startAt is the zero-based offset to resume from;
// the returned total lets the caller know when paging is complete.
func (c *Client) SearchKeys(ctx context.Context, startAt int) (keys []string, total int, err error) {
	var resp wireSearchResponse
	req := wireSearchRequest{
		JQL:        fmt.Sprintf("project = %s ORDER BY key ASC", c.cfg.ProjectKey),
		StartAt:    startAt,
		MaxResults: searchPageSize,
		Fields:     []string{"key"},
	}
	if err := c.doJSON(ctx, "POST", "/rest/api/3/search", req, &resp); err != nil {
		return nil, 0, err
	}
	keys = make([]string, 0, len(resp.Issues))
	for _, wi := range resp.Issues {
		keys = append(keys, wi.Key)
	}
	return keys, resp.Total, nil
}

// Transition is a single selectable workflow move.
type Transition struct {
	ID           string
	ToStatusName string
}

// ListTransitions lists the transitions available from the issue's current
// status.
func (c *Client) ListTransitions(ctx context.Context, key string) ([]Transition, error) {
	var resp wireTransitionsResponse
	if err := c.doJSON(ctx, "GET", fmt.Sprintf("/rest/api/3/issue/%s/transitions", key), nil, &resp); err != nil {
		return nil, err
	}
	out := make([]Transition, 0, len(resp.Transitions))
	for _, t := range resp.Transitions {
		out = append(out, Transition{ID: t.ID, ToStatusName: t.To.Name})
	}
	return out, nil
}

// TransitionIssue performs the named transition by id.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string) error {
	_, err := c.doRaw(ctx, "POST", fmt.Sprintf("/rest/api/3/issue/%s/transitions", key),
		wireTransitionRequest{Transition: wireTransitionRef{ID: transitionID}})
	return err
}

// TransitionTo lists transitions, picks the first whose target status name
// matches statusName case-insensitively, and performs it. Returns false if
// no transition matches.
func (c *Client) TransitionTo(ctx context.Context, key, statusName string) (bool, error) {
	transitions, err := c.ListTransitions(ctx, key)
	if err != nil {
		return false, err
	}
	for _, t := range transitions {
		if strings.EqualFold(t.ToStatusName, statusName) {
			if err := c.TransitionIssue(ctx, key, t.ID); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}
