package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/models"
)

// WebSocketAuthMiddleware reads the access token from the Authorization
// header or, since browsers cannot set headers on upgrade, the token query.
func WebSocketAuthMiddleware(tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		// Validasi token
		claims, err := tokens.ParseAccessToken(token)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(IdentityKey, models.AuthenticatedIdentity{ID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}
