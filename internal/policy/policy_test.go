package policy

import (
	"fmt"
	"testing"

	"github.com/huangang/tasktracker/internal/models"
)

func strPtr(s string) *string { return &s }

func project(owner string, members ...string) *models.Project {
	p := &models.Project{ID: "p1", OwnerID: owner}
	for _, m := range members {
		p.Members = append(p.Members, models.ProjectMember{ProjectID: p.ID, UserID: m})
	}
	return p
}

func TestCanEditProject_Exhaustive(t *testing.T) {
	for _, role := range []string{models.RoleMember, models.RoleAdmin} {
		for _, isOwner := range []bool{false, true} {
			for _, isMember := range []bool{false, true} {
				name := fmt.Sprintf("role=%s/owner=%v/member=%v", role, isOwner, isMember)
				t.Run(name, func(t *testing.T) {
					caller := Caller{ID: "me", Role: role}
					owner := "someone-else"
					if isOwner {
						owner = caller.ID
					}
					var members []string
					if isMember {
						members = append(members, caller.ID)
					}
					p := project(owner, members...)

					expected := isOwner || role == models.RoleAdmin
					if got := CanEditProject(caller, p); got != expected {
						t.Errorf("CanEditProject() = %v, expected %v", got, expected)
					}
					if got := CanDeleteProject(caller, p); got != expected {
						t.Errorf("CanDeleteProject() = %v, expected %v", got, expected)
					}
				})
			}
		}
	}
}

func TestProjectVisible(t *testing.T) {
	tests := []struct {
		name     string
		caller   Caller
		project  *models.Project
		expected bool
	}{
		{"owner", Caller{ID: "a", Role: models.RoleMember}, project("a"), true},
		{"member", Caller{ID: "b", Role: models.RoleMember}, project("a", "b"), true},
		{"stranger", Caller{ID: "c", Role: models.RoleMember}, project("a", "b"), false},
		{"admin is not widened", Caller{ID: "root", Role: models.RoleAdmin}, project("a"), false},
		{"nil project", Caller{ID: "a"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProjectVisible(tt.caller, tt.project); got != tt.expected {
				t.Errorf("ProjectVisible() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestTaskPermissions(t *testing.T) {
	p := project("owner", "member")
	task := &models.Task{
		ID:           "t1",
		ProjectID:    p.ID,
		Project:      p,
		CreatedByID:  "creator",
		AssignedToID: strPtr("assignee"),
	}

	tests := []struct {
		name       string
		caller     Caller
		wantView   bool
		wantEdit   bool
		wantDelete bool
	}{
		{"creator", Caller{ID: "creator", Role: models.RoleMember}, true, true, true},
		{"assignee", Caller{ID: "assignee", Role: models.RoleMember}, true, true, false},
		{"project owner", Caller{ID: "owner", Role: models.RoleMember}, true, true, true},
		{"project member only", Caller{ID: "member", Role: models.RoleMember}, true, false, false},
		{"admin", Caller{ID: "root", Role: models.RoleAdmin}, false, true, true},
		{"stranger", Caller{ID: "nobody", Role: models.RoleMember}, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TaskVisible(tt.caller, task); got != tt.wantView {
				t.Errorf("TaskVisible() = %v, expected %v", got, tt.wantView)
			}
			if got := CanEditTask(tt.caller, task, p); got != tt.wantEdit {
				t.Errorf("CanEditTask() = %v, expected %v", got, tt.wantEdit)
			}
			if got := CanDeleteTask(tt.caller, task, p); got != tt.wantDelete {
				t.Errorf("CanDeleteTask() = %v, expected %v", got, tt.wantDelete)
			}
		})
	}
}

func TestDeleteImpliesEdit(t *testing.T) {
	p := project("owner", "member")
	callers := []Caller{
		{ID: "creator", Role: models.RoleMember},
		{ID: "assignee", Role: models.RoleMember},
		{ID: "owner", Role: models.RoleMember},
		{ID: "member", Role: models.RoleMember},
		{ID: "root", Role: models.RoleAdmin},
		{ID: "nobody", Role: models.RoleMember},
	}
	for _, assignee := range []*string{nil, strPtr("assignee")} {
		task := &models.Task{ProjectID: p.ID, Project: p, CreatedByID: "creator", AssignedToID: assignee}
		for _, c := range callers {
			if CanDeleteTask(c, task, p) && !CanEditTask(c, task, p) {
				t.Errorf("caller %s can delete but not edit", c.ID)
			}
		}
	}
}

func TestCanCreateTask(t *testing.T) {
	p := project("owner", "member")

	tests := []struct {
		caller   Caller
		expected bool
	}{
		{Caller{ID: "owner", Role: models.RoleMember}, true},
		{Caller{ID: "member", Role: models.RoleMember}, true},
		{Caller{ID: "nobody", Role: models.RoleMember}, false},
		{Caller{ID: "root", Role: models.RoleAdmin}, false},
	}

	for _, tt := range tests {
		if got := CanCreateTask(tt.caller, p); got != tt.expected {
			t.Errorf("CanCreateTask(%s) = %v, expected %v", tt.caller.ID, got, tt.expected)
		}
	}
}

func TestTaskVisible_MonotonicUnderMembership(t *testing.T) {
	caller := Caller{ID: "c", Role: models.RoleMember}
	tasks := []*models.Task{
		{CreatedByID: "a"},
		{CreatedByID: "c"},
		{CreatedByID: "a", AssignedToID: strPtr("c")},
		{CreatedByID: "a", AssignedToID: strPtr("b")},
	}

	for i, task := range tasks {
		before := project("a", "b")
		task.Project = before
		visibleBefore := TaskVisible(caller, task)

		task.Project = project("a", "b", caller.ID)
		visibleAfter := TaskVisible(caller, task)

		if visibleBefore && !visibleAfter {
			t.Errorf("task %d: becoming a member hid a visible task", i)
		}
		if !visibleAfter {
			t.Errorf("task %d: a project member should see every task in the project", i)
		}
	}
}
