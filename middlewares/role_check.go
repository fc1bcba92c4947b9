package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

// RequireRoles lets the request through only for the given roles. Must run
// after AuthMiddleware.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, exists := CurrentIdentity(c)
		if !exists {
			utils.RespondAppError(c, utils.NewAuthError("unauthorized"))
			return
		}

		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}

		// Validasi role
		switch {
		case len(roles) == 1 && roles[0] == models.RoleOwner:
			utils.RespondAppError(c, utils.NewForbiddenError("Owner access required"))
		case len(roles) == 1 && roles[0] == models.RoleGuest:
			utils.RespondAppError(c, utils.NewForbiddenError("Guest access required"))
		default:
			utils.RespondAppError(c, utils.NewForbiddenError("Staff access required"))
		}
	}
}

// RequireStaff is RequireRoles(Owner, Employee).
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(models.RoleOwner, models.RoleEmployee)
}
