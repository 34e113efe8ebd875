package model

import "time"

// Comment is the normalized representation of a public issue comment.
type Comment struct {
	ID           string
	Body         string
	AuthorName   string
	AuthorEmail  *string
	Created      time.Time
	Updated      time.Time
	IsPublic     bool
}
