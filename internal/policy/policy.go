// Package policy decides what a caller may see and change.
//
// Every rule exists twice: as an in-memory predicate over loaded entities and
// as a gorm scope that narrows a query to the same rows. Both forms must agree.
// Nothing in this package performs I/O.
package policy

import "github.com/huangang/tasktracker/internal/models"

// Caller is the authenticated identity a request acts on behalf of.
type Caller struct {
	ID   string
	Role string
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// Action names a guarded operation. It labels permission-denial metrics.
type Action string

const (
	ActionViewProject   Action = "project.view"
	ActionEditProject   Action = "project.edit"
	ActionDeleteProject Action = "project.delete"
	ActionViewTask      Action = "task.view"
	ActionCreateTask    Action = "task.create"
	ActionEditTask      Action = "task.edit"
	ActionDeleteTask    Action = "task.delete"
)

// ProjectVisible reports whether c owns p or is one of its members. The
// admin role does not widen visibility. p.Members must be loaded.
func ProjectVisible(c Caller, p *models.Project) bool {
	if p == nil {
		return false
	}
	return p.OwnerID == c.ID || p.HasMember(c.ID)
}

// TaskVisible reports whether c created t, is assigned to it, or can see its
// project. t.Project (with members) must be loaded for the last clause.
func TaskVisible(c Caller, t *models.Task) bool {
	if t == nil {
		return false
	}
	if t.CreatedByID == c.ID || t.IsAssignedTo(c.ID) {
		return true
	}
	return ProjectVisible(c, t.Project)
}

func CanEditProject(c Caller, p *models.Project) bool {
	return c.IsAdmin() || p.OwnerID == c.ID
}

func CanDeleteProject(c Caller, p *models.Project) bool {
	return CanEditProject(c, p)
}

// CanCreateTask allows anyone who can see the project to add tasks to it.
func CanCreateTask(c Caller, p *models.Project) bool {
	return ProjectVisible(c, p)
}

func CanEditTask(c Caller, t *models.Task, p *models.Project) bool {
	return c.IsAdmin() ||
		t.CreatedByID == c.ID ||
		t.IsAssignedTo(c.ID) ||
		(p != nil && p.OwnerID == c.ID)
}

// CanDeleteTask is CanEditTask without the assignee clause: an assignee may
// change a task but not remove it.
func CanDeleteTask(c Caller, t *models.Task, p *models.Project) bool {
	return c.IsAdmin() ||
		t.CreatedByID == c.ID ||
		(p != nil && p.OwnerID == c.ID)
}
