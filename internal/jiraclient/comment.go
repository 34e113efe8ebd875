package jiraclient

import (
	"context"
	"fmt"

	"github.com/corvid-labs/jira-bridge/internal/model"
	"github.com/corvid-labs/jira-bridge/internal/syncmark"
)

// ListComments returns every public comment on the issue.
func (c *Client) ListComments(ctx context.Context, key string) ([]model.Comment, error) {
	var page wireCommentPage
	if err := c.doJSON(ctx, "GET", fmt.Sprintf("/rest/api/3/issue/%s/comment", key), nil, &page); err != nil {
		return nil, err
	}
	out := make([]model.Comment, 0, len(page.Comments))
	for _, wc := range page.Comments {
		if !wc.isPublic() {
			continue
		}
		out = append(out, wireCommentToModel(wc))
	}
	return out, nil
}

func wireCommentToModel(wc wireComment) model.Comment {
	comment := model.Comment{
		ID:         wc.ID,
		AuthorName: wc.Author.DisplayName,
		Body:       flattenRichText(wc.Body),
		Created:    wc.Created,
		Updated:    wc.Updated,
		IsPublic:   wc.isPublic(),
	}
	if wc.Author.EmailAddress != "" {
		email := wc.Author.EmailAddress
		comment.AuthorEmail = &email
	}
	return comment
}

// GetComment fetches a single comment by id.
func (c *Client) GetComment(ctx context.Context, issueKey, commentID string) (*model.Comment, error) {
	var wc wireComment
	if err := c.doJSON(ctx, "GET", fmt.Sprintf("/rest/api/3/issue/%s/comment/%s", issueKey, commentID), nil, &wc); err != nil {
		return nil, err
	}
	comment := wireCommentToModel(wc)
	return &comment, nil
}

// CreateComment posts a plain-text comment, re-inflating it to the rich
// text shape the remote expects.
func (c *Client) CreateComment(ctx context.Context, key, body string) (*model.Comment, error) {
	var wc wireComment
	if err := c.doJSON(ctx, "POST", fmt.Sprintf("/rest/api/3/issue/%s/comment", key),
		wireCreateCommentRequest{Body: inflateRichText(body)}, &wc); err != nil {
		return nil, err
	}
	result := wireCommentToModel(wc)
	return &result, nil
}

// UpdateComment replaces a comment's body.
func (c *Client) UpdateComment(ctx context.Context, key, commentID, body string) error {
	_, err := c.doRaw(ctx, "PUT", fmt.Sprintf("/rest/api/3/issue/%s/comment/%s", key, commentID),
		wireUpdateCommentRequest{Body: inflateRichText(body)})
	return err
}

// DeleteComment removes a comment. A 404 ("already gone") is returned as
// success.
func (c *Client) DeleteComment(ctx context.Context, key, commentID string) error {
	_, err := c.doRaw(ctx, "DELETE", fmt.Sprintf("/rest/api/3/issue/%s/comment/%s", key, commentID), nil)
	if apiErr, ok := err.(*APIError); ok && apiErr.NotFound() {
		return nil
	}
	return err
}

// CreateSyncComment mirrors a newly observed source comment onto this
// side's issue, prefixing the body with the deterministic marker block,
// created form only.
func (c *Client) CreateSyncComment(ctx context.Context, targetKey string, source model.Comment, sourceInstanceLabel string) (*model.Comment, error) {
	body := RenderSyncBody(source, sourceInstanceLabel, false)
	return c.CreateComment(ctx, targetKey, body)
}

// RenderSyncBody renders the marker block for a source comment. The
// updated form carries both Created and Updated stamps; the created form
// carries only Created.
func RenderSyncBody(source model.Comment, sourceInstanceLabel string, isUpdate bool) string {
	header := syncmark.Header{
		OriginalAuthorName:  source.AuthorName,
		SourceCommentID:     source.ID,
		SourceInstanceLabel: sourceInstanceLabel,
		Created:             source.Created,
	}
	if source.AuthorEmail != nil {
		header.OriginalAuthorEmail = *source.AuthorEmail
	}
	if isUpdate {
		updated := source.Updated
		header.Updated = &updated
	}
	return syncmark.Wrap(header, source.Body)
}
