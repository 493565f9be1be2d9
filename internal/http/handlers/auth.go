package handlers

import (
	"net/http"
	"strings"

	"natours/internal/domain/models"
	"natours/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

// sendToken sets the jwt cookie and returns the token with the user.
func (a *App) sendToken(c *gin.Context, status int, u models.User, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(a.Env.JWTCookieExpiresIn.Seconds()), "/", "", a.Env.IsProd(), true)
	c.JSON(status, gin.H{
		"status": "success",
		"token":  token,
		"data":   gin.H{"user": u},
	})
}

// POST /api/v1/users/signup
func (a *App) Signup(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	u, token, err := a.Auth.Signup(c.Request.Context(), body)
	if err != nil {
		fail(c, err)
		return
	}
	a.sendToken(c, http.StatusCreated, u, token)
}

// POST /api/v1/users/login
func (a *App) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	u, token, err := a.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	a.sendToken(c, http.StatusOK, u, token)
}

// GET /api/v1/users/logout overwrites the cookie with a short-lived dummy.
func (a *App) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "loggedout", 10, "/", "", a.Env.IsProd(), true)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// POST /api/v1/users/forgotPassword
func (a *App) ForgotPassword(c *gin.Context) {
	var req forgotRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	resetURL := scheme + "://" + c.Request.Host + "/api/v1/users/resetPassword/"
	if err := a.Auth.ForgotPassword(c.Request.Context(), req.Email, resetURL); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Token sent to email!"})
}

// PATCH /api/v1/users/resetPassword/:token
func (a *App) ResetPassword(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	u, token, err := a.Auth.ResetPassword(c.Request.Context(), c.Param("token"), body)
	if err != nil {
		fail(c, err)
		return
	}
	a.sendToken(c, http.StatusOK, u, token)
}

// PATCH /api/v1/users/updateMyPassword
func (a *App) UpdatePassword(c *gin.Context) {
	me, err := middleware.MustUser(c)
	if err != nil {
		fail(c, err)
		return
	}
	body, err := bindBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	u, token, err := a.Auth.UpdatePassword(c.Request.Context(), me.ID, body)
	if err != nil {
		fail(c, err)
		return
	}
	a.sendToken(c, http.StatusOK, u, token)
}
