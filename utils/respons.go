package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionCookie is cleared whenever an authentication failure is returned.
const SessionCookie = "session_token"

type JSONResponse struct {
	Status       bool         `json:"status"`
	Message      string       `json:"message"`
	Data         interface{}  `json:"data,omitempty"`
	Errors       []FieldError `json:"errors,omitempty"`
	ClearSession bool         `json:"clear_session,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondAppError maps err to its HTTP status. Auth failures also tell the
// client to drop its stored session.
func RespondAppError(c *gin.Context, err error) {
	code := HTTPStatus(err)
	resp := JSONResponse{
		Status:  false,
		Message: err.Error(),
	}

	appErr, ok := AsAppError(err)
	if ok {
		resp.Message = appErr.Message
		resp.Errors = appErr.Fields
		if appErr.Kind == KindAuth {
			resp.ClearSession = true
			c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
		}
	}
	if code == http.StatusInternalServerError {
		ErrorLogger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		resp.Message = "Internal server error"
	}

	c.AbortWithStatusJSON(code, resp)
}

// RespondBindError reports request binding failures as a validation error.
func RespondBindError(c *gin.Context, err error) {
	RespondAppError(c, NewValidationError("%s", err.Error()))
}
