package handlers

import (
	"natours/internal/config"
	"natours/internal/domain/models"
	"natours/internal/services"

	"github.com/jmoiron/sqlx"
)

// App holds the services every handler works with. It is built once in main
// and handed to the router.
type App struct {
	Env     config.Env
	DB      *sqlx.DB
	Tours   services.TourService
	Users   services.UserService
	Reviews services.ReviewService
	Auth    services.AuthService
	Reports services.ReportsService
	Docs    services.DocsService
	Export  services.ExportService
}

func (a *App) TourFactory() Factory[models.Tour] {
	return Factory[models.Tour]{Store: a.Tours, Singular: "tour", Plural: "tours", Populate: []string{"reviews"}}
}

func (a *App) UserFactory() Factory[models.User] {
	return Factory[models.User]{Store: a.Users, Singular: "user", Plural: "users"}
}

func (a *App) ReviewFactory() Factory[models.Review] {
	return Factory[models.Review]{
		Store:    a.Reviews,
		Singular: "review",
		Plural:   "reviews",
		Scope:    scopeToTour,
		Prepare:  setTourUserIDs,
	}
}
