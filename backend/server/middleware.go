package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"skysafe/backend/auth"
	"skysafe/backend/authz"
	"skysafe/backend/server/api"
)

const principalKey = "principal"

// AuthMiddleware validates the bearer token and stores the resolved
// principal on the request context.
func AuthMiddleware(service *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				api.ErrorResponse{Error: "missing authorization header"})
			return
		}

		tokenString := extractToken(authHeader)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				api.ErrorResponse{Error: "invalid authorization format"})
			return
		}

		p, err := service.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				api.ErrorResponse{Error: "invalid or expired token"})
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

func extractToken(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// principal returns the authenticated caller placed by the
// middleware.
func principal(c *gin.Context) authz.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(authz.Principal); ok {
			return p
		}
	}
	return authz.Principal{}
}
