package middleware

import (
	"strings"

	"natours/internal/domain"

	"github.com/gin-gonic/gin"
)

// RestrictTo is role-based access control; it must run after Protect, which
// sets userRole on the context.
//
//	r.DELETE("/tours/:id", Protect(auth), RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide), h)
func RestrictTo(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[strings.ToLower(string(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(userRoleKey)
		if role == "" {
			Fail(c, domain.AuthError{})
			return
		}
		if _, ok := allowed[strings.ToLower(role)]; !ok {
			Fail(c, domain.AuthError{Forbidden: true})
			return
		}
		c.Next()
	}
}
