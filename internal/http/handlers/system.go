package handlers

import (
	"context"
	"net/http"
	"time"

	"natours/internal/db"

	"github.com/gin-gonic/gin"
)

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "natours backend berjalan"})
}

// DBCheck pings the pool and confirms the migrated tables exist.
func (a *App) DBCheck(c *gin.Context) {
	if a.DB == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "database belum terhubung"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := a.DB.PingContext(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "database ping failed: " + err.Error()})
		return
	}
	tables := gin.H{}
	for _, t := range []string{"tours", "tour_start_dates", "tour_guides", "users", "reviews"} {
		tables[t] = db.HasTable(ctx, a.DB, t)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "koneksi database OK", "tables": tables})
}

// Routes lists the mounted routes of r.
func Routes(r *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		routes := r.Routes()
		out := make([]gin.H, 0, len(routes))
		for _, rt := range routes {
			out = append(out, gin.H{"method": rt.Method, "path": rt.Path, "handler": rt.Handler})
		}
		c.JSON(http.StatusOK, gin.H{"routes": out})
	}
}
