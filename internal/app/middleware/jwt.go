package middleware

import (
	"errors"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/error/code"
	"hoa-http-service/internal/error/response"
	Logger "hoa-http-service/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authenticate
const (
	ContextOwnerID   = "ownerID"
	ContextRole      = "role"
	ContextTemporary = "temp"
	ContextClaims    = "claims"
)

// extractToken returns the token of a "Bearer <token>" header
func extractToken(authHeader string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Authenticate validates the bearer token and stores the owner in the context.
// Sessions on a temporary password are rejected unless allowTemporary is set.
func Authenticate(jwtService services.InterfaceJWTService, allowTemporary bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.FailWithMessage(c, code.ErrTokenInvalid, "Authorization header is required", nil)
			c.Abort()
			return
		}

		tokenString, ok := extractToken(authHeader)
		if !ok {
			response.FailWithMessage(c, code.ErrTokenInvalid, "Authorization header format must be Bearer {token}", nil)
			c.Abort()
			return
		}

		claims, err := jwtService.ExtractClaims(tokenString)
		if err != nil {
			response.FailWithMessage(c, code.ErrTokenInvalid, "Invalid or expired token", nil)
			c.Abort()
			return
		}

		if claims.Temporary && !allowTemporary {
			response.Fail(c, code.ErrTemporaryPassword, nil)
			c.Abort()
			return
		}

		c.Set(ContextOwnerID, claims.OwnerID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextTemporary, claims.Temporary)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireBoardMember rejects tokens that were not issued to a board member, and
// tokens whose owner no longer holds an active role
func RequireBoardMember(board services.InterfaceBoardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != services.RoleBoardMember {
			response.FailWithMessage(c, code.ErrPermissionDenied, "Insufficient permissions: requires board member role", nil)
			c.Abort()
			return
		}

		if _, err := board.ActiveRole(OwnerID(c)); err != nil {
			if errors.Is(err, services.ErrNoActiveRole) {
				response.FailWithMessage(c, code.ErrPermissionDenied, "Board member role has ended", nil)
			} else {
				Logger.Error("Failed to load board member role: %v", err)
				response.Fail(c, code.ErrDatabase, nil)
			}
			c.Abort()
			return
		}
		c.Next()
	}
}

// OwnerID returns the authenticated owner id
func OwnerID(c *gin.Context) uint {
	if v, ok := c.Get(ContextOwnerID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// IsBoardMember reports whether the token was issued to a board member
func IsBoardMember(c *gin.Context) bool {
	return c.GetString(ContextRole) == services.RoleBoardMember
}
