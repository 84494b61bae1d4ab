package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/tasktracker/internal/middleware"
	"github.com/huangang/tasktracker/internal/services"
	"github.com/huangang/tasktracker/pkg/response"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: services.NewDashboardService(db),
	}
}

// Get returns the caller's dashboard
// GET /api/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	resp, err := h.dashboardService.Get(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, newDashboardView(resp))
}
