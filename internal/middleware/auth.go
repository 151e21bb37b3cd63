package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"repairshop/internal/domain"
	jwtsvc "repairshop/internal/pkg/jwt"
	"repairshop/internal/pkg/response"
)

// JWTAuth validates the bearer token and stores the caller identity on the
// gin context for CallerFromContext.
func JWTAuth(jwt *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing Authorization header")
			c.Abort()
			return
		}

		if !strings.HasPrefix(h, "Bearer ") {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid Authorization header")
			c.Abort()
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Empty token")
			c.Abort()
			return
		}

		claims, err := jwt.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		if claims.ClientID != nil {
			c.Set("client_id", *claims.ClientID)
		}

		c.Next()
	}
}

// CallerFromContext rebuilds the explicit caller identity that every
// workflow operation takes as a parameter.
func CallerFromContext(c *gin.Context) domain.Caller {
	caller := domain.Caller{
		UserID: c.GetInt64("user_id"),
		Role:   c.GetString("role"),
	}
	if v, ok := c.Get("client_id"); ok {
		if id, ok := v.(int64); ok {
			caller.ClientID = &id
		}
	}
	return caller
}
