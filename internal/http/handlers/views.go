package handlers

import (
	"net/http"
	"net/url"

	"natours/internal/domain"
	"natours/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// page adds the logged-in user, if any, to the template data.
func page(c *gin.Context, title string, data gin.H) gin.H {
	data["title"] = title
	if u, ok := middleware.CurrentUser(c); ok {
		data["user"] = u
	}
	return data
}

// GET /
func (a *App) Overview(c *gin.Context) {
	f := a.Tours.Query(url.Values{})
	f.Filter().Sort().LimitFields().Paginate()
	tours, err := a.Tours.Find(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "overview.html", page(c, "All Tours", gin.H{"tours": tours}))
}

// GET /tour/:slug
func (a *App) TourPage(c *gin.Context) {
	tour, err := a.Tours.FindBySlug(c.Request.Context(), c.Param("slug"), "reviews")
	if err != nil {
		if domain.IsNotFound(err) {
			err = domain.NotFoundError{Resource: "tour", Msg: "There is no tour with that name.", Err: err}
		}
		fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "tour.html", page(c, tour.Name+" Tour", gin.H{"tour": tour}))
}

// GET /login
func LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", page(c, "Log into your account", gin.H{}))
}

// GET /me, behind Protect.
func AccountPage(c *gin.Context) {
	c.HTML(http.StatusOK, "account.html", page(c, "Your account", gin.H{}))
}
