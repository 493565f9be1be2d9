package handlers

import (
	"natours/internal/http/middleware"
	"natours/internal/query"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

// scopeToTour limits the nested /tours/:tourId/reviews listing to that tour.
func scopeToTour(c *gin.Context, f *query.Features) error {
	if c.Param("tourId") == "" {
		return nil
	}
	tourID, err := paramID(c, "tourId")
	if err != nil {
		return err
	}
	f.Where(goqu.C("tour_id").Eq(tourID))
	return nil
}

// setTourUserIDs defaults tour to the route's tourId and user to the caller.
func setTourUserIDs(c *gin.Context, body map[string]any) error {
	if _, ok := body["tour"]; !ok && c.Param("tourId") != "" {
		tourID, err := paramID(c, "tourId")
		if err != nil {
			return err
		}
		body["tour"] = tourID
	}
	if _, ok := body["user"]; !ok {
		u, err := middleware.MustUser(c)
		if err != nil {
			return err
		}
		body["user"] = u.ID
	}
	return nil
}
