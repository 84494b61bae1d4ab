package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangang/tasktracker/internal/models"
	"github.com/huangang/tasktracker/internal/policy"
	"github.com/huangang/tasktracker/pkg/nullable"
	"gorm.io/gorm"
)

// Default task ordering: urgency first, then the nearest deadline (undated
// last), then the newest.
const (
	orderByDueDate = "CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date ASC"
	orderByCreated = "tasks.created_at DESC"
)

var orderByPriority = priorityOrder()

// priorityOrder ranks rows with models.PriorityRank so the store sorts by
// urgency, not by the priority's name.
func priorityOrder() string {
	var b strings.Builder
	b.WriteString("CASE tasks.priority")
	for _, p := range models.TaskPriorities {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", p, models.PriorityRank(p))
	}
	b.WriteString(" ELSE 0 END DESC")
	return b.String()
}

type TaskService struct {
	db *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db}
}

type TaskListRequest struct {
	ProjectID    string `form:"projectId" json:"projectId"`
	Status       string `form:"status" json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Priority     string `form:"priority" json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	AssignedToMe bool   `form:"assignedToMe" json:"assignedToMe"`
}

type CreateTaskRequest struct {
	Title        string  `json:"title" validate:"required,max=300"`
	Description  *string `json:"description"`
	Priority     string  `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Status       string  `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	DueDate      *string `json:"dueDate"`
	ProjectID    string  `json:"projectId" validate:"required"`
	AssignedToID *string `json:"assignedToId"`
}

// UpdateTaskRequest has no projectId: a task never moves between projects.
type UpdateTaskRequest struct {
	Title        nullable.Field[string] `json:"title"`
	Description  nullable.Field[string] `json:"description"`
	Priority     nullable.Field[string] `json:"priority"`
	Status       nullable.Field[string] `json:"status"`
	DueDate      nullable.Field[string] `json:"dueDate"`
	AssignedToID nullable.Field[string] `json:"assignedToId"`
}

func (r *UpdateTaskRequest) validate() (dueDate *time.Time, err error) {
	verr := &ValidationError{}
	if r.Title.Set {
		if r.Title.Null || strings.TrimSpace(r.Title.Value) == "" {
			verr.Add("title", "cannot be empty")
		} else if len(r.Title.Value) > 300 {
			verr.Add("title", "must be at most 300 characters")
		}
	}
	if r.Priority.Set && (r.Priority.Null || !models.IsValidPriority(r.Priority.Value)) {
		verr.Add("priority", "must be one of: LOW, MEDIUM, HIGH")
	}
	if r.Status.Set && (r.Status.Null || !models.IsValidTaskStatus(r.Status.Value)) {
		verr.Add("status", "must be one of: TODO, IN_PROGRESS, DONE")
	}
	if r.DueDate.HasValue() && r.DueDate.Value != "" {
		t, perr := parseDueDate("dueDate", r.DueDate.Value)
		if perr != nil {
			verr.Fields = append(verr.Fields, perr.(*ValidationError).Fields...)
		} else {
			dueDate = &t
		}
	}
	if r.AssignedToID.HasValue() && r.AssignedToID.Value == "" {
		verr.Add("assignedToId", "cannot be empty, use null to unassign")
	}
	return dueDate, verr.Err()
}

// List returns the tasks visible to caller narrowed by the optional filters.
func (s *TaskService) List(ctx context.Context, caller policy.Caller, req *TaskListRequest) ([]models.Task, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(policy.TaskScope(caller))
	if req.ProjectID != "" {
		query = query.Where("tasks.project_id = ?", req.ProjectID)
	}
	if req.Status != "" {
		query = query.Where("tasks.status = ?", req.Status)
	}
	if req.Priority != "" {
		query = query.Where("tasks.priority = ?", req.Priority)
	}
	if req.AssignedToMe {
		query = query.Where("tasks.assigned_to_id = ?", caller.ID)
	}

	var tasks []models.Task
	err := withTaskRelations(query).
		Order(orderByPriority).
		Order(orderByDueDate).
		Order(orderByCreated).
		Find(&tasks).Error
	return tasks, err
}

// Get returns one task. Missing tasks are reported before invisible ones.
func (s *TaskService) Get(ctx context.Context, caller policy.Caller, id string) (*models.Task, error) {
	db := s.db.WithContext(ctx)
	task, err := s.loadForPolicy(db, id)
	if err != nil {
		return nil, err
	}
	if !policy.TaskVisible(caller, task) {
		return nil, denied(policy.ActionViewTask)
	}
	return s.load(db, id)
}

// Create adds a task to a project caller can see. caller becomes the creator.
func (s *TaskService) Create(ctx context.Context, caller policy.Caller, req *CreateTaskRequest) (*models.Task, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fieldError("title", "cannot be empty")
	}
	var dueDate *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		t, err := parseDueDate("dueDate", *req.DueDate)
		if err != nil {
			return nil, err
		}
		dueDate = &t
	}
	if req.AssignedToID != nil && *req.AssignedToID == "" {
		req.AssignedToID = nil
	}

	db := s.db.WithContext(ctx)
	var project models.Project
	if err := db.Preload("Members").First(&project, "id = ?", req.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if !policy.CanCreateTask(caller, &project) {
		return nil, denied(policy.ActionCreateTask)
	}
	if req.AssignedToID != nil {
		if err := ensureUsersExist(db, "assignedToId", []string{*req.AssignedToID}); err != nil {
			return nil, err
		}
	}

	task := models.Task{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		Status:       req.Status,
		DueDate:      dueDate,
		ProjectID:    project.ID,
		CreatedByID:  caller.ID,
		AssignedToID: req.AssignedToID,
	}
	if err := db.Create(&task).Error; err != nil {
		return nil, err
	}
	return s.load(db, task.ID)
}

// Update applies the present fields of req. dueDate and assignedToId are
// cleared by an explicit null.
func (s *TaskService) Update(ctx context.Context, caller policy.Caller, id string, req *UpdateTaskRequest) (*models.Task, error) {
	dueDate, err := req.validate()
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	task, err := s.loadForPolicy(db, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditTask(caller, task, task.Project) {
		return nil, denied(policy.ActionEditTask)
	}
	if req.AssignedToID.HasValue() {
		if err := ensureUsersExist(db, "assignedToId", []string{req.AssignedToID.Value}); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Title.Set {
		updates["title"] = req.Title.Value
	}
	if req.Description.Set {
		updates["description"] = req.Description.Ptr()
	}
	if req.Priority.Set {
		updates["priority"] = req.Priority.Value
	}
	if req.Status.Set {
		updates["status"] = req.Status.Value
	}
	if req.DueDate.Set {
		updates["due_date"] = dueDate
	}
	if req.AssignedToID.Set {
		updates["assigned_to_id"] = req.AssignedToID.Ptr()
	}

	if err := db.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.load(db, id)
}

// Delete removes a task. Assignees cannot delete tasks they did not create.
func (s *TaskService) Delete(ctx context.Context, caller policy.Caller, id string) error {
	db := s.db.WithContext(ctx)
	task, err := s.loadForPolicy(db, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteTask(caller, task, task.Project) {
		return denied(policy.ActionDeleteTask)
	}
	return db.Delete(&models.Task{}, "id = ?", id).Error
}

// loadForPolicy loads a task with the project membership the rules need.
func (s *TaskService) loadForPolicy(db *gorm.DB, id string) (*models.Task, error) {
	var task models.Task
	if err := db.Preload("Project.Members").First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) load(db *gorm.DB, id string) (*models.Task, error) {
	var task models.Task
	if err := withTaskRelations(db).First(&task, "tasks.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func withTaskRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Project").Preload("CreatedBy").Preload("AssignedTo")
}
