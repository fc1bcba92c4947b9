package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

// IdentityKey is the gin context key holding the caller's models.AuthenticatedIdentity.
const IdentityKey = "identity"

// AccessTokenParser verifies access tokens. utils.JWTManager implements it.
type AccessTokenParser interface {
	ParseAccessToken(token string) (*utils.CustomClaims, error)
}

func AuthMiddleware(tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondAppError(c, utils.NewAuthError("Authorization header missing"))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokens.ParseAccessToken(tokenString)
		if err != nil {
			utils.RespondAppError(c, utils.NewAuthError("Invalid or expired token"))
			return
		}

		c.Set(IdentityKey, models.AuthenticatedIdentity{ID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// OptionalAuthMiddleware sets the identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuthMiddleware(tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			claims, err := tokens.ParseAccessToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err == nil {
				c.Set(IdentityKey, models.AuthenticatedIdentity{ID: claims.UserID, Role: claims.Role})
			}
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity set by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (models.AuthenticatedIdentity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return models.AuthenticatedIdentity{}, false
	}
	identity, ok := v.(models.AuthenticatedIdentity)
	return identity, ok
}
