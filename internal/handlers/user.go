package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/tasktracker/internal/services"
	"github.com/huangang/tasktracker/pkg/response"
	"gorm.io/gorm"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{userService: services.NewUserService(db)}
}

// List returns every user as {id, name, email} for member and assignee pickers
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, users)
}
