package handlers

import (
	"net/http"
	"strconv"

	"natours/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// GetMe points the :id param at the caller so the next handler (GetOne)
// loads their profile.
func GetMe(c *gin.Context) {
	u, err := middleware.MustUser(c)
	if err != nil {
		fail(c, err)
		return
	}
	c.Params = append(c.Params, gin.Param{Key: "id", Value: strconv.FormatInt(u.ID, 10)})
	c.Next()
}

// PATCH /api/v1/users/updateMe
func (a *App) UpdateMe(c *gin.Context) {
	u, err := middleware.MustUser(c)
	if err != nil {
		fail(c, err)
		return
	}
	body, err := bindBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	updated, err := a.Users.UpdateMe(c.Request.Context(), u.ID, body)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": updated})
}

// DELETE /api/v1/users/deleteMe
func (a *App) DeleteMe(c *gin.Context) {
	u, err := middleware.MustUser(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := a.Users.DeleteMe(c.Request.Context(), u.ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
