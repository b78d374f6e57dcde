package auth

import (
	"errors"
	"net/http"
	"strings"

	"coachslot/internal/api"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxUserRole  = "user_role"
)

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: msg, Code: "unauthorized"})
}

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			unauthorized(c, "Token is empty")
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				unauthorized(c, "Token expired")
			default:
				unauthorized(c, "Invalid or malformed token")
			}
			return
		}

		if claims.TokenType != "access" {
			unauthorized(c, "Access token required")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserEmail, claims.Email)
		c.Set(ctxUserRole, claims.Role)

		c.Next()
	}
}

func RequireRole(requiredRole Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxUserRole)
		if !exists {
			unauthorized(c, "User role not found")
			return
		}

		r, ok := role.(Role)
		if !ok {
			unauthorized(c, "Invalid role type")
			return
		}

		if r != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{Error: "Insufficient permissions", Code: "forbidden"})
			return
		}

		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return "", false
	}

	id, ok := userID.(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}

// GetRequester returns the authenticated caller set by AuthMiddleware.
func GetRequester(c *gin.Context) (Requester, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return Requester{}, false
	}

	role, _ := c.Get(ctxUserRole)
	r, ok := role.(Role)
	if !ok || !r.Valid() {
		return Requester{}, false
	}

	return Requester{ID: id, Role: r}, true
}
