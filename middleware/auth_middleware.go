package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fibernet/auth"
	"fibernet/utils"
)

const identityKey = "identity"

// AuthMiddleware validates the bearer token and stores the typed identity
// in the request context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Authorization header is required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Authorization header format must be Bearer {token}"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Invalid or expired token"})
			c.Abort()
			return
		}

		role, ok := auth.ParseRole(claims.Role)
		if !ok {
			// A token carrying an unknown role never grants anything.
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Unknown role"})
			c.Abort()
			return
		}

		c.Set(identityKey, &auth.Identity{
			UserID:    claims.UserID,
			Username:  claims.Username,
			Role:      role,
			CompanyID: claims.CompanyID,
		})

		c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthMiddleware, or nil when
// the request is unauthenticated
func CurrentIdentity(c *gin.Context) *auth.Identity {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	id, ok := v.(*auth.Identity)
	if !ok {
		return nil
	}
	return id
}

// RequireRoles rejects requests whose identity does not hold one of the
// given roles. Super admins pass every gate.
func RequireRoles(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if id == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Authentication required"})
			c.Abort()
			return
		}

		if id.Role == auth.RoleSuperAdmin {
			c.Next()
			return
		}

		for _, r := range roles {
			if r == id.Role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Permission denied"})
		c.Abort()
	}
}

func SuperAdminAuthMiddleware() gin.HandlerFunc {
	return RequireRoles(auth.RoleSuperAdmin)
}

func AdminAuthMiddleware() gin.HandlerFunc {
	return RequireRoles(auth.RoleCompanyAdmin)
}

func AdminOrSupportAuthMiddleware() gin.HandlerFunc {
	return RequireRoles(auth.RoleCompanyAdmin, auth.RoleSupport)
}
