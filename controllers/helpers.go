package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/middlewares"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

// requireIdentity reads the caller set by the auth middleware and responds
// 401 when there is none.
func requireIdentity(c *gin.Context) (models.AuthenticatedIdentity, bool) {
	identity, ok := middlewares.CurrentIdentity(c)
	if !ok {
		utils.RespondAppError(c, utils.NewAuthError("unauthorized"))
		return models.AuthenticatedIdentity{}, false
	}
	return identity, true
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		utils.RespondAppError(c, utils.NewFieldError(name, "Invalid "+name))
		return 0, false
	}
	return uint(v), true
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		utils.RespondAppError(c, utils.NewFieldError(name, "Invalid "+name))
		return 0, false
	}
	return v, true
}

// dateQuery parses a RFC3339 timestamp or a plain date. A plain date used as
// an upper bound covers the whole day.
func dateQuery(c *gin.Context, name string, endOfDay bool) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		utils.RespondAppError(c, utils.NewFieldError(name, "Date must be YYYY-MM-DD or RFC3339"))
		return nil, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, true
}
