package authz

import (
	"errors"
	"testing"

	"github.com/Jayanthmurala/nexus-backend/internal/apperr"
	"github.com/Jayanthmurala/nexus-backend/internal/model"
)

func ident(roles ...string) model.Identity {
	return model.Identity{Subject: "u-1", Roles: roles, College: "c-1", Department: "cse"}
}

func TestAllowMatrix(t *testing.T) {
	cases := []struct {
		name     string
		ident    model.Identity
		resource Resource
		action   Action
		owned    bool
		want     bool
	}{
		{"owner always allowed", ident(model.RoleStudent), ResourceProject, ActionDelete, true, true},
		{"student cannot create event", ident(model.RoleStudent), ResourceEvent, ActionCreate, false, false},
		{"faculty creates event", ident(model.RoleFaculty), ResourceEvent, ActionCreate, false, true},
		{"faculty cannot delete others' event", ident(model.RoleFaculty), ResourceEvent, ActionDelete, false, false},
		{"dept admin deletes others' event", ident(model.RoleDeptAdmin), ResourceEvent, ActionDelete, false, true},
		{"head admin moderates project", ident(model.RoleHeadAdmin), ResourceProject, ActionModerate, false, true},
		{"faculty cannot moderate", ident(model.RoleFaculty), ResourceProject, ActionModerate, false, false},
		{"student cannot decide application", ident(model.RoleStudent), ResourceApplication, ActionDecide, false, false},
		{"dept admin decides application", ident(model.RoleDeptAdmin), ResourceApplication, ActionDecide, false, true},
		{"assignee moves own task", ident(model.RoleStudent), ResourceTask, ActionUpdate, true, true},
		{"student cannot move others' task", ident(model.RoleStudent), ResourceTask, ActionUpdate, false, false},
		{"multiple roles, one matches", ident(model.RoleStudent, model.RoleDeptAdmin), ResourceEvent, ActionModerate, false, true},
		{"unknown action denies", ident(model.RoleHeadAdmin), ResourceTask, ActionModerate, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Allow(tc.ident, tc.resource, tc.action, tc.owned)
			if tc.want && err != nil {
				t.Fatalf("expected allow, got %v", err)
			}
			if !tc.want {
				if !errors.Is(err, apperr.ErrForbidden) {
					t.Fatalf("expected ErrForbidden, got %v", err)
				}
			}
		})
	}
}

func TestSameCollege(t *testing.T) {
	id := ident(model.RoleDeptAdmin)
	if err := SameCollege(id, "c-1"); err != nil {
		t.Fatalf("same college rejected: %v", err)
	}
	if err := SameCollege(id, "c-2"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("cross college allowed: %v", err)
	}
}
