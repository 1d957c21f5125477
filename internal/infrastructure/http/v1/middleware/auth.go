package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"erpdesk/internal/core/apperror"
	appctx "erpdesk/internal/core/context"
)

// SessionValidator turns a bearer token into a desk session.
type SessionValidator interface {
	ValidateToken(tokenString string) (*appctx.Session, error)
}

// Auth requires a valid bearer token and puts its session in the request context.
func Auth(validator SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		session, err := validator.ValidateToken(parts[1])
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token").WithCause(err))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(appctx.WithSession(c.Request.Context(), session))
		c.Set("user", session.User)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
