package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/tasktracker/internal/middleware"
	"github.com/huangang/tasktracker/internal/services"
	"github.com/huangang/tasktracker/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db),
	}
}

// List returns the projects visible to the caller
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	items, err := h.projectService.List(c.Request.Context(), middleware.GetCaller(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, newProjectListView(items))
}

// GetByID returns a project by ID
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	project, err := h.projectService.Get(c.Request.Context(), middleware.GetCaller(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, newProjectView(project))
}

// Create creates a new project owned by the caller
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), middleware.GetCaller(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, newProjectView(project))
}

// Update updates a project and, when memberIds is given, replaces its members
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var req services.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), middleware.GetCaller(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, newProjectView(project))
}

// Delete deletes a project with its tasks and memberships
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projectService.Delete(c.Request.Context(), middleware.GetCaller(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "project deleted successfully"})
}
