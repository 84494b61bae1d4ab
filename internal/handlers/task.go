package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/tasktracker/internal/middleware"
	"github.com/huangang/tasktracker/internal/services"
	"github.com/huangang/tasktracker/pkg/response"
	"gorm.io/gorm"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{
		taskService: services.NewTaskService(db),
	}
}

// List returns visible tasks, optionally filtered
// GET /api/tasks?projectId=&status=&priority=&assignedToMe=true
func (h *TaskHandler) List(c *gin.Context) {
	var req services.TaskListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	tasks, err := h.taskService.List(c.Request.Context(), middleware.GetCaller(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, newTaskViews(tasks))
}

// GetByID returns a task by ID
// GET /api/tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	task, err := h.taskService.Get(c.Request.Context(), middleware.GetCaller(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, newTaskView(task))
}

// Create creates a task in a project visible to the caller
// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req services.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), middleware.GetCaller(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, newTaskView(task))
}

// Update updates a task
// PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	var req services.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), middleware.GetCaller(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, newTaskView(task))
}

// Delete deletes a task
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.taskService.Delete(c.Request.Context(), middleware.GetCaller(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "task deleted successfully"})
}
