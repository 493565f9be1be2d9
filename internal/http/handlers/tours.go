package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AliasTopTours rewrites the query string to the five best cheap tours.
func AliasTopTours(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("limit", "5")
	q.Set("sort", "-ratingsAverage,price")
	q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	c.Request.URL.RawQuery = q.Encode()
	c.Next()
}

// GET /api/v1/tours/tour-stats
func (a *App) TourStats(c *gin.Context) {
	stats, err := a.Reports.RatingsSummary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"stats": stats})
}

// GET /api/v1/tours/monthly-plan/:year
func (a *App) MonthlyPlan(c *gin.Context) {
	_, plan, err := a.Reports.MonthlyPlan(c.Request.Context(), c.Param("year"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"plan": plan})
}

// GET /api/v1/tours/tours-within/:distance/center/:latlng/unit/:unit
func (a *App) ToursWithin(c *gin.Context) {
	tours, err := a.Tours.Within(c.Request.Context(), c.Param("distance"), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(tours),
		"data":    gin.H{"data": tours},
	})
}

// GET /api/v1/tours/distances/:latlng/unit/:unit
func (a *App) Distances(c *gin.Context) {
	distances, err := a.Tours.Distances(c.Request.Context(), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"data": distances})
}

// GET /api/v1/tours/tour-stats/xlsx
func (a *App) TourStatsXLSX(c *gin.Context) {
	data, filename, err := a.Export.RatingsSummaryXLSX(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	sendFile(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename, data)
}

// GET /api/v1/tours/monthly-plan/:year/pdf
func (a *App) MonthlyPlanPDF(c *gin.Context) {
	data, filename, err := a.Docs.MonthlyPlanPDF(c.Request.Context(), c.Param("year"))
	if err != nil {
		fail(c, err)
		return
	}
	sendFile(c, "application/pdf", filename, data)
}
