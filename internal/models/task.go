package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

const (
	TaskStatusTodo       = "TODO"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusDone       = "DONE"
)

// TaskStatuses and TaskPriorities list every enum value in display order.
var (
	TaskStatuses   = []string{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}
	TaskPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}
)

// Task is a unit of work inside a project. ProjectID and CreatedByID are
// fixed at creation.
type Task struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Title        string     `gorm:"size:300;not null" json:"title"`
	Description  *string    `gorm:"type:text" json:"description"`
	Priority     string     `gorm:"size:20;default:MEDIUM;not null;index" json:"priority"`
	Status       string     `gorm:"size:20;default:TODO;not null;index" json:"status"`
	DueDate      *time.Time `gorm:"index" json:"dueDate"`
	ProjectID    string     `gorm:"size:36;index;not null" json:"projectId"`
	Project      *Project   `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	CreatedByID  string     `gorm:"size:36;index;not null" json:"createdById"`
	CreatedBy    *User      `gorm:"foreignKey:CreatedByID" json:"createdBy,omitempty"`
	AssignedToID *string    `gorm:"size:36;index" json:"assignedToId"`
	AssignedTo   *User      `gorm:"foreignKey:AssignedToID" json:"assignedTo,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (Task) TableName() string { return "tasks" }

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = TaskStatusTodo
	}
	return nil
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}

func IsValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

func IsValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// PriorityRank orders priorities by urgency rather than by name.
func PriorityRank(priority string) int {
	switch priority {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}
