package model

import "time"

// Issue is the normalized, wire-format-independent representation of a
// ticket on one side. Set-valued fields (Labels, Components, FixVersions)
// are compared as sets, never as ordered lists (spec round-trip law).
type Issue struct {
	Key         string
	Summary     string
	Description *string
	IssueType   string
	Status      string
	Priority    string
	Assignee    *string
	Reporter    string
	Labels      []string
	Components  []string
	FixVersions []string

	// CustomFields maps opaque field identifiers (e.g. "customfield_10032")
	// to scalar or list values exactly as observed on the wire.
	CustomFields map[string]any

	Created time.Time
	Updated time.Time

	Resolution *string

	// Comments holds the public comments carried in the fetched issue
	// payload (GetIssue fills it whenever the payload includes them); nil
	// when there are none.
	Comments []Comment
}

// FieldSet is a sparse set of changed fields produced by a diff, keyed by
// the same field names used in Issue. Only fields present in the map
// differ between source and target.
type FieldSet map[string]any

// Empty reports whether no fields differ.
func (fs FieldSet) Empty() bool {
	return len(fs) == 0
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// setsEqual reports whether a and b contain the same elements, ignoring
// order and duplicates.
func setsEqual(a, b []string) bool {
	as, bs := stringSet(a), stringSet(b)
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
}
