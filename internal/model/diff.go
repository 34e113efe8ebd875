package model

import "reflect"

// DiffOpts controls which optional fields participate in a diff.
type DiffOpts struct {
	SyncAssignee bool
}

// Diff compares current (target's present state) against desired (source
// issue) and returns the sparse set of fields that differ. Set-valued
// fields are compared as sets; status is intentionally excluded — status
// changes are handled separately by the reconciler's transition pipeline.
func Diff(current, desired *Issue, opts DiffOpts) FieldSet {
	fields := FieldSet{}

	if current.Summary != desired.Summary {
		fields["summary"] = desired.Summary
	}

	if !stringPtrEqual(current.Description, desired.Description) {
		fields["description"] = desired.Description
	}

	if current.Priority != desired.Priority {
		fields["priority"] = desired.Priority
	}

	if !setsEqual(current.Labels, desired.Labels) {
		fields["labels"] = desired.Labels
	}

	if !setsEqual(current.Components, desired.Components) {
		fields["components"] = desired.Components
	}

	if !setsEqual(current.FixVersions, desired.FixVersions) {
		fields["fix_versions"] = desired.FixVersions
	}

	if opts.SyncAssignee && !stringPtrEqual(current.Assignee, desired.Assignee) {
		fields["assignee"] = desired.Assignee
	}

	for key, desiredVal := range desired.CustomFields {
		currentVal, ok := current.CustomFields[key]
		if !ok || !reflect.DeepEqual(currentVal, desiredVal) {
			fields[key] = desiredVal
		}
	}

	return fields
}

func stringPtrEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
