package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/errs"
)

// Context keys set by TokenMiddleware for downstream gates and handlers.
const (
	ctxUserID      = "user_id"
	ctxUserEmail   = "user_email"
	ctxUserRoles   = "user_roles"
	ctxAccessToken = "access_token"
)

// TokenMiddleware is the first gate. It validates the bearer token's
// signature and expiry, then checks the token record still exists; a token
// revoked by logout fails here even though its signature is fine.
func (s *Server) TokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			writeError(c, err)
			return
		}

		claims, err := s.Issuer.ValidateAccess(tokenString)
		if err != nil {
			writeError(c, err)
			return
		}

		if _, err := s.Tokens.FindByAccess(c.Request.Context(), tokenString); err != nil {
			writeError(c, err)
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxUserEmail, claims.Email)
		c.Set(ctxUserRoles, claims.Roles)
		c.Set(ctxAccessToken, tokenString)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errs.Unauthorized("UNAUTHORIZED")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errs.Unauthorized("UNAUTHORIZED")
	}
	return parts[1], nil
}

// GetUserIDFromContext retrieves the authenticated user's ID from the gin
// context. Returns empty string if not set.
func GetUserIDFromContext(c *gin.Context) string {
	if userID, exists := c.Get(ctxUserID); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}

// GetRolesFromContext retrieves the token's role names from the gin
// context. Returns empty slice if not set.
func GetRolesFromContext(c *gin.Context) []string {
	if roles, exists := c.Get(ctxUserRoles); exists {
		if r, ok := roles.([]string); ok {
			return r
		}
	}
	return []string{}
}

// GetAccessTokenFromContext retrieves the raw bearer token from the gin
// context.
func GetAccessTokenFromContext(c *gin.Context) string {
	if tok, exists := c.Get(ctxAccessToken); exists {
		if t, ok := tok.(string); ok {
			return t
		}
	}
	return ""
}
