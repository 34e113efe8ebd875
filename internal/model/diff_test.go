package model

import "testing"

func strp(s string) *string { return &s }

func TestDiff_SetFieldsIgnoreOrder(t *testing.T) {
	current := &Issue{Summary: "Hello", Labels: []string{"a", "b"}}
	desired := &Issue{Summary: "Hello", Labels: []string{"b", "a"}}

	fields := Diff(current, desired, DiffOpts{})
	if !fields.Empty() {
		t.Fatalf("expected no diff for reordered label set, got %v", fields)
	}
}

func TestDiff_DetectsSummaryChange(t *testing.T) {
	current := &Issue{Summary: "Hello"}
	desired := &Issue{Summary: "Goodbye"}

	fields := Diff(current, desired, DiffOpts{})
	if fields["summary"] != "Goodbye" {
		t.Fatalf("expected summary diff, got %v", fields)
	}
}

func TestDiff_AssigneeIgnoredUnlessEnabled(t *testing.T) {
	current := &Issue{Assignee: strp("a@example.com")}
	desired := &Issue{Assignee: strp("b@example.com")}

	fields := Diff(current, desired, DiffOpts{SyncAssignee: false})
	if _, ok := fields["assignee"]; ok {
		t.Fatalf("expected assignee to be ignored when sync disabled, got %v", fields)
	}

	fields = Diff(current, desired, DiffOpts{SyncAssignee: true})
	if fields["assignee"] == nil {
		t.Fatalf("expected assignee diff when sync enabled, got %v", fields)
	}
}

func TestDiff_NilDescriptionsAreNoDiff(t *testing.T) {
	current := &Issue{Description: nil}
	desired := &Issue{Description: nil}

	if fields := Diff(current, desired, DiffOpts{}); !fields.Empty() {
		t.Fatalf("expected no diff for nil descriptions, got %v", fields)
	}
}

func TestDiff_CustomFields(t *testing.T) {
	current := &Issue{CustomFields: map[string]any{"customfield_10001": "x"}}
	desired := &Issue{CustomFields: map[string]any{"customfield_10001": "y", "customfield_10002": "z"}}

	fields := Diff(current, desired, DiffOpts{})
	if fields["customfield_10001"] != "y" || fields["customfield_10002"] != "z" {
		t.Fatalf("expected both custom fields in diff, got %v", fields)
	}
}

func TestGenerateSyncID(t *testing.T) {
	left := "PROJ-1"
	if got := GenerateSyncID(&left, nil); got != "PROJ-1#unknown" {
		t.Fatalf("got %q", got)
	}
	right := "RPROJ-5"
	if got := GenerateSyncID(&left, &right); got != "PROJ-1#RPROJ-5" {
		t.Fatalf("got %q", got)
	}
}

func TestSide_Other(t *testing.T) {
	if Left.Other() != Right || Right.Other() != Left {
		t.Fatal("side should flip")
	}
}
