// Package syncmark builds and parses the "[JIRA-SYNC]" marker block that
// tags comments the engine itself created on the peer side. The marker is
// the sole mechanism behind loop suppression: a comment whose body starts
// with the marker is never propagated back to its origin.
package syncmark

import (
	"fmt"
	"strings"
	"time"
)

// Prefix is the literal marker every sync comment body begins with.
const Prefix = "[JIRA-SYNC]"

const timeLayout = "2006-01-02 15:04:05 UTC"

// Header carries the fields rendered into a marker block.
type Header struct {
	OriginalAuthorName  string
	OriginalAuthorEmail string // empty if unknown
	SourceCommentID     string
	SourceInstanceLabel string
	Created             time.Time
	Updated             *time.Time // nil on the "created" form
}

// Render produces the marker header plus separator, ready to be followed
// by the verbatim source body.
func Render(h Header) string {
	var b strings.Builder

	author := h.OriginalAuthorName
	if h.OriginalAuthorEmail != "" {
		author = fmt.Sprintf("%s (%s)", h.OriginalAuthorName, h.OriginalAuthorEmail)
	}

	fmt.Fprintf(&b, "%s Original author: %s\n", Prefix, author)
	fmt.Fprintf(&b, "%s Source ID: %s\n", Prefix, h.SourceCommentID)
	fmt.Fprintf(&b, "%s From: %s\n", Prefix, h.SourceInstanceLabel)
	fmt.Fprintf(&b, "%s Created: %s\n", Prefix, h.Created.UTC().Format(timeLayout))
	if h.Updated != nil {
		fmt.Fprintf(&b, "%s Updated: %s\n", Prefix, h.Updated.UTC().Format(timeLayout))
	}
	b.WriteString("\n---\n\n")

	return b.String()
}

// Wrap renders the marker header and appends the verbatim body.
func Wrap(h Header, body string) string {
	return Render(h) + body
}

// IsSyncComment reports whether body begins with the marker, per a prefix
// match against the first non-whitespace line.
func IsSyncComment(body string) bool {
	trimmed := strings.TrimLeft(body, " \t\r\n")
	return strings.HasPrefix(trimmed, Prefix)
}

// Parsed holds the fields recovered from a marker block, best-effort.
type Parsed struct {
	OriginalAuthor  string
	SourceCommentID string
	SourceLabel     string
}

// Parse extracts the marker fields from a sync comment body. It returns
// ok=false if the body isn't a sync comment.
func Parse(body string) (Parsed, bool) {
	if !IsSyncComment(body) {
		return Parsed{}, false
	}

	var p Parsed
	lines := strings.Split(body, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, Prefix) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, Prefix))
		switch {
		case strings.HasPrefix(rest, "Original author:"):
			p.OriginalAuthor = strings.TrimSpace(strings.TrimPrefix(rest, "Original author:"))
		case strings.HasPrefix(rest, "Source ID:"):
			p.SourceCommentID = strings.TrimSpace(strings.TrimPrefix(rest, "Source ID:"))
		case strings.HasPrefix(rest, "From:"):
			p.SourceLabel = strings.TrimSpace(strings.TrimPrefix(rest, "From:"))
		}
	}
	return p, true
}
