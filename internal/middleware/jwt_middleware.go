package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/admin_api/internal/cache"
	"github.com/GTDGit/admin_api/internal/models"
	"github.com/GTDGit/admin_api/internal/utils"
)

// JWTMiddleware authenticates admin requests via bearer tokens and checks
// the revocation list so logged-out tokens stop working immediately.
type JWTMiddleware struct {
	tokenCache *cache.TokenCache
}

// NewJWTMiddleware constructs a JWTMiddleware. tokenCache may be nil, in
// which case revocation checks are skipped.
func NewJWTMiddleware(tokenCache *cache.TokenCache) *JWTMiddleware {
	return &JWTMiddleware{tokenCache: tokenCache}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Error(c, 401, "UNAUTHORIZED", "Invalid authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		if m.tokenCache != nil {
			revoked, err := m.tokenCache.IsRevoked(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				utils.Error(c, 401, "TOKEN_REVOKED", "Token has been revoked")
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", string(claims.Role))
		c.Set("claims", claims)
		c.Next()
	}
}

// RequireCapability gates a route on the capability table for the role
// carried in the token. Routes stay ignorant of which roles hold a
// capability.
func RequireCapability(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := models.Role(c.GetString("role"))
		holder := models.AdminUser{Role: role}
		if !role.Valid() || !holder.Can(capability) {
			utils.Error(c, 403, "FORBIDDEN", "Insufficient privileges")
			c.Abort()
			return
		}
		c.Next()
	}
}
