package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/huangang/tasktracker/internal/services"
	"github.com/huangang/tasktracker/pkg/logger"
	"github.com/huangang/tasktracker/pkg/response"
)

// handleError renders a service error. Unknown errors are logged and
// reported as a generic 500 so store details never reach the client.
func handleError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]response.FieldError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, response.FieldError{Field: f.Field, Message: f.Message})
		}
		response.Error(c, response.NewValidationError(details))
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrUserNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, services.ErrPermissionDenied):
		response.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		response.Error(c, response.NewConflict(err.Error()))
	case errors.Is(err, services.ErrLDAPDisabled),
		errors.Is(err, services.ErrNotLocalAccount),
		errors.Is(err, services.ErrIncorrectPassword):
		response.BadRequest(c, err.Error())
	default:
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
		response.ServerError(c, "internal server error")
	}
}

// bindJSON decodes the request body. Field rules are enforced by the
// services; here a value of the wrong JSON type is reported against its
// field and anything else undecodable is a bad request.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		response.Error(c, response.NewValidationError([]response.FieldError{
			{Field: typeErr.Field, Message: "cannot be a " + typeErr.Value},
		}))
		return false
	}
	response.BadRequest(c, "invalid request body")
	return false
}
