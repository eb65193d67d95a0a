package model

import "testing"

func TestEventVisibility(t *testing.T) {
	open := &Event{}
	if !open.VisibleTo("cse") {
		t.Fatal("event with no department list should be open to all")
	}

	restricted := &Event{VisibleDepartments: []string{"cse", "ece"}}
	if !restricted.VisibleTo("ece") {
		t.Fatal("listed department rejected")
	}
	if restricted.VisibleTo("mech") {
		t.Fatal("unlisted department admitted")
	}
}

func TestEventLimited(t *testing.T) {
	if (&Event{}).Limited() {
		t.Fatal("nil capacity should mean unlimited")
	}
	zero := 0
	if !(&Event{Capacity: &zero}).Limited() {
		t.Fatal("zero capacity is still a cap")
	}
}

func TestProjectAcceptsApplications(t *testing.T) {
	cases := []struct {
		moderation ModerationStatus
		progress   ProgressStatus
		want       bool
	}{
		{ModerationApproved, ProgressOpen, true},
		{ModerationApproved, ProgressInProgress, true},
		{ModerationApproved, ProgressCompleted, false},
		{ModerationPending, ProgressOpen, false},
		{ModerationRejected, ProgressOpen, false},
	}
	for _, tc := range cases {
		p := &Project{Moderation: tc.moderation, Progress: tc.progress}
		if got := p.AcceptsApplications(); got != tc.want {
			t.Fatalf("%s/%s: got %v, want %v", tc.moderation, tc.progress, got, tc.want)
		}
	}
}

func TestIdentityHasRole(t *testing.T) {
	id := Identity{Roles: []string{RoleStudent, RoleFaculty}}
	if !id.HasRole(RoleFaculty) {
		t.Fatal("faculty role missing")
	}
	if id.HasRole(RoleHeadAdmin) {
		t.Fatal("unexpected head_admin role")
	}
}
