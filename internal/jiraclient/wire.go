package jiraclient

import "time"

// wireIssue mirrors the GET/POST/PUT issue[/{key}] shape under
// /rest/api/3/issue. Only the fields this client uses are modeled.
type wireIssue struct {
	Key    string          `json:"key"`
	Fields wireIssueFields `json:"fields"`
}

type wireIssueFields struct {
	Summary     string            `json:"summary"`
	Description *adfDoc           `json:"description"`
	IssueType   wireNamed         `json:"issuetype"`
	Status      wireStatus        `json:"status"`
	Priority    wireNamed         `json:"priority"`
	Assignee    *wireUser         `json:"assignee"`
	Reporter    *wireUser         `json:"reporter"`
	Labels      []string          `json:"labels"`
	Components  []wireNamed       `json:"components"`
	FixVersions []wireNamed       `json:"fixVersions"`
	Resolution  *wireNamed        `json:"resolution"`
	Created     time.Time         `json:"created"`
	Updated     time.Time         `json:"updated"`
	Comment     *wireCommentPage  `json:"comment,omitempty"`

	// CustomFields is not filled by decoding; parseWireIssue in issue.go
	// reads customfield_* entries straight from the raw fields object into
	// model.Issue.CustomFields.
	CustomFields map[string]any `json:"-"`
}

type wireNamed struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type wireStatus struct {
	Name string `json:"name"`
}

type wireUser struct {
	EmailAddress string `json:"emailAddress"`
	DisplayName  string `json:"displayName"`
}

type wireCreateIssueRequest struct {
	Fields map[string]any `json:"fields"`
}

type wireUpdateIssueRequest struct {
	Fields map[string]any `json:"fields"`
}

type wireSearchRequest struct {
	JQL        string   `json:"jql"`
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields,omitempty"`
}

type wireSearchResponse struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []wireIssue `json:"issues"`
}

type wireTransitionsResponse struct {
	Transitions []wireTransition `json:"transitions"`
}

type wireTransition struct {
	ID   string     `json:"id"`
	To   wireStatus `json:"to"`
}

type wireTransitionRequest struct {
	Transition wireTransitionRef `json:"transition"`
}

type wireTransitionRef struct {
	ID string `json:"id"`
}

type wireCommentPage struct {
	Comments []wireComment `json:"comments"`
}

type wireComment struct {
	ID      string    `json:"id"`
	Body    *adfDoc   `json:"body"`
	Author  wireUser  `json:"author"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	// JSDPublic reflects the "public comment" flag used by service-desk
	// style projects; absent on pure software projects, which treat every
	// comment as public.
	JSDPublic *bool `json:"jsdPublic,omitempty"`
}

func (c wireComment) isPublic() bool {
	if c.JSDPublic == nil {
		return true
	}
	return *c.JSDPublic
}

type wireCreateCommentRequest struct {
	Body *adfDoc `json:"body"`
}

type wireUpdateCommentRequest struct {
	Body *adfDoc `json:"body"`
}
