package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/tasktracker/internal/config"
	"github.com/huangang/tasktracker/internal/middleware"
	"github.com/huangang/tasktracker/internal/services"
	"github.com/huangang/tasktracker/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return NewAuthHandlerWithDirectory(db, &cfg.JWT, services.NewLDAPService(&cfg.LDAP))
}

// NewAuthHandlerWithDirectory wires an explicit directory, used by tests.
func NewAuthHandlerWithDirectory(db *gorm.DB, jwtCfg *config.JWTConfig, dir services.DirectoryAuthenticator) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db, jwtCfg, dir),
	}
}

type authResponse struct {
	Token    string    `json:"token"`
	ExpireAt time.Time `json:"expireAt"`
	User     userView  `json:"user"`
}

func newAuthResponse(res *services.AuthResult) authResponse {
	return authResponse{Token: res.Token, ExpireAt: res.ExpireAt, User: newUserView(res.User)}
}

// Register creates a member account
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, newAuthResponse(res))
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, newAuthResponse(res))
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.GetUserByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, newUserView(user))
}

// GetAuthConfig returns authentication configuration
// GET /api/auth/config
func (h *AuthHandler) GetAuthConfig(c *gin.Context) {
	response.Success(c, gin.H{
		"ldap_enabled": h.authService.IsLDAPEnabled(),
	})
}

// Logout handles user logout (client-side token removal)
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Success(c, gin.H{"message": "logged out successfully"})
}

// ChangePassword changes a local account's password
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), middleware.GetUserID(c), &req); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "password changed successfully"})
}
