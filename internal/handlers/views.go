package handlers

import (
	"time"

	"github.com/huangang/tasktracker/internal/models"
	"github.com/huangang/tasktracker/internal/services"
)

// Views are the response shapes. Embedded users expose only id, name and
// email; a task's project exposes only id and name.

type projectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type memberView struct {
	ID     string              `json:"id"`
	UserID string              `json:"userId"`
	User   *models.UserSummary `json:"user"`
}

type projectView struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description *string             `json:"description"`
	Status      string              `json:"status"`
	OwnerID     string              `json:"ownerId"`
	Owner       *models.UserSummary `json:"owner"`
	Members     []memberView        `json:"members"`
	TaskCount   *int64              `json:"taskCount,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type taskView struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  *string             `json:"description"`
	Priority     string              `json:"priority"`
	Status       string              `json:"status"`
	DueDate      *time.Time          `json:"dueDate"`
	ProjectID    string              `json:"projectId"`
	Project      *projectRef         `json:"project"`
	CreatedByID  string              `json:"createdById"`
	CreatedBy    *models.UserSummary `json:"createdBy"`
	AssignedToID *string             `json:"assignedToId"`
	AssignedTo   *models.UserSummary `json:"assignedTo"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	AuthType  string    `json:"authType"`
	CreatedAt time.Time `json:"createdAt"`
}

type dashboardView struct {
	Stats           services.DashboardStats `json:"stats"`
	TasksByStatus   map[string]int64        `json:"tasksByStatus"`
	TasksByPriority map[string]int64        `json:"tasksByPriority"`
	RecentTasks     []taskView              `json:"recentTasks"`
	UpcomingTasks   []taskView              `json:"upcomingTasks"`
	ProjectStats    []services.ProjectStats `json:"projectStats"`
}

func newProjectView(p *models.Project) projectView {
	v := projectView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		OwnerID:     p.OwnerID,
		Owner:       p.Owner.Summary(),
		Members:     make([]memberView, 0, len(p.Members)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, m := range p.Members {
		v.Members = append(v.Members, memberView{ID: m.ID, UserID: m.UserID, User: m.User.Summary()})
	}
	return v
}

func newProjectListView(items []services.ProjectListItem) []projectView {
	out := make([]projectView, 0, len(items))
	for _, item := range items {
		v := newProjectView(item.Project)
		count := item.TaskCount
		v.TaskCount = &count
		out = append(out, v)
	}
	return out
}

func newTaskView(t *models.Task) taskView {
	v := taskView{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Priority:     t.Priority,
		Status:       t.Status,
		DueDate:      t.DueDate,
		ProjectID:    t.ProjectID,
		CreatedByID:  t.CreatedByID,
		CreatedBy:    t.CreatedBy.Summary(),
		AssignedToID: t.AssignedToID,
		AssignedTo:   t.AssignedTo.Summary(),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if t.Project != nil {
		v.Project = &projectRef{ID: t.Project.ID, Name: t.Project.Name}
	}
	return v
}

func newTaskViews(tasks []models.Task) []taskView {
	out := make([]taskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, newTaskView(&tasks[i]))
	}
	return out
}

func newUserView(u *models.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		AuthType:  u.AuthType,
		CreatedAt: u.CreatedAt,
	}
}

func newDashboardView(d *services.DashboardResponse) dashboardView {
	return dashboardView{
		Stats:           d.Stats,
		TasksByStatus:   d.TasksByStatus,
		TasksByPriority: d.TasksByPriority,
		RecentTasks:     newTaskViews(d.RecentTasks),
		UpcomingTasks:   newTaskViews(d.UpcomingTasks),
		ProjectStats:    d.ProjectStats,
	}
}
