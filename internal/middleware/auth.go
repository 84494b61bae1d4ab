package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/tasktracker/internal/models"
	"github.com/huangang/tasktracker/internal/policy"
	"github.com/huangang/tasktracker/internal/utils"
	"github.com/huangang/tasktracker/pkg/logger"
	"github.com/huangang/tasktracker/pkg/response"
	"gorm.io/gorm"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// AuthRequired is a middleware that checks for a valid JWT token
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "authorization header required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// LoadCaller re-reads the authenticated user from the store so that the role
// used for authorization is the stored one, not the one baked into the token.
// It must run after AuthRequired. A token whose user is gone is rejected.
func LoadCaller(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == "" {
			abortUnauthorized(c, "authentication required")
			return
		}

		var user models.User
		err := db.WithContext(c.Request.Context()).
			Select("id", "email", "role").
			First(&user, "id = ?", userID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortUnauthorized(c, "user no longer exists")
				return
			}
			logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load caller")
			response.ServerError(c, "internal server error")
			c.Abort()
			return
		}

		c.Set(ContextEmail, user.Email)
		c.Set(ContextRole, user.Role)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	response.Unauthorized(c, msg)
	c.Abort()
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// GetEmail gets the current user's email from context
func GetEmail(c *gin.Context) string {
	return c.GetString(ContextEmail)
}

// GetRole gets the current user role from context
func GetRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}

// GetCaller returns the identity the authorization rules are evaluated against.
func GetCaller(c *gin.Context) policy.Caller {
	return policy.Caller{ID: GetUserID(c), Role: GetRole(c)}
}
