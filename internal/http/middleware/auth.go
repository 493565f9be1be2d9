package middleware

import (
	"context"
	"strings"

	"natours/internal/domain"
	"natours/internal/domain/models"

	"github.com/gin-gonic/gin"
)

const (
	userKey     = "user"
	userRoleKey = "userRole"

	// TokenCookie carries the JWT for browser clients.
	TokenCookie = "jwt"
)

// Authenticator resolves a raw token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (models.User, error)
}

// Protect admits only requests with a valid bearer token or jwt cookie.
func Protect(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := auth.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			Fail(c, err)
			return
		}
		c.Set(userKey, u)
		c.Set(userRoleKey, string(u.Role))
		c.Next()
	}
}

// IsLoggedIn is the soft variant used by rendered pages: it never fails, it
// only exposes the user to templates when the cookie checks out.
func IsLoggedIn(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(TokenCookie); err == nil && raw != "" {
			if u, err := auth.Authenticate(c.Request.Context(), raw); err == nil {
				c.Set(userKey, u)
				c.Set(userRoleKey, string(u.Role))
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user Protect stored on the context.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if raw, err := c.Cookie(TokenCookie); err == nil && raw != "loggedout" {
		return raw
	}
	return ""
}

// MustUser is CurrentUser for handlers mounted behind Protect.
func MustUser(c *gin.Context) (models.User, error) {
	u, ok := CurrentUser(c)
	if !ok {
		return models.User{}, domain.AuthError{}
	}
	return u, nil
}
