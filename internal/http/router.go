package api

import (
	"log"
	"net/http"

	"natours/internal/domain"
	h "natours/internal/http/handlers"
	"natours/internal/http/middleware"
	"natours/internal/loaders"
	"natours/internal/views"

	"github.com/gin-gonic/gin"
)

func NewRouter(app *h.App) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		middleware.CORS(app.Env.CORSAllowedOrigins),
		middleware.ErrorHandler(app.Env.IsProd()),
		loaders.Middleware(func() *loaders.Loaders {
			return loaders.New(app.Tours.Repo, app.Reviews.Repo, app.Users.Repo)
		}),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}
	r.SetHTMLTemplate(views.Templates())

	r.NoRoute(func(c *gin.Context) {
		middleware.Fail(c, domain.NotFoundError{Msg: "Can't find " + c.Request.URL.Path + " on this server!"})
	})

	protect := middleware.Protect(app.Auth)
	adminsAndLeads := middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide)
	planners := middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide)

	// Pages
	pages := r.Group("/", middleware.IsLoggedIn(app.Auth))
	pages.GET("", app.Overview)
	pages.GET("/tour/:slug", app.TourPage)
	pages.GET("/login", h.LoginPage)
	r.GET("/me", protect, h.AccountPage)

	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.GET("/db-check", app.DBCheck)
	api.GET("/routes", h.Routes(r))

	v1 := api.Group("/v1")

	// Tours
	tours := app.TourFactory()
	reviews := app.ReviewFactory()
	tr := v1.Group("/tours")
	tr.GET("/top-5-cheap", h.AliasTopTours, tours.GetAll)
	tr.GET("/tour-stats", app.TourStats)
	tr.GET("/tour-stats/xlsx", app.TourStatsXLSX)
	tr.GET("/monthly-plan/:year", protect, planners, app.MonthlyPlan)
	tr.GET("/monthly-plan/:year/pdf", protect, planners, app.MonthlyPlanPDF)
	tr.GET("/tours-within/:distance/center/:latlng/unit/:unit", app.ToursWithin)
	tr.GET("/distances/:latlng/unit/:unit", app.Distances)
	tr.GET("", tours.GetAll)
	tr.POST("", protect, adminsAndLeads, tours.CreateOne)
	tr.GET("/:id", tours.GetOne)
	tr.PATCH("/:id", protect, adminsAndLeads, tours.UpdateOne)
	tr.DELETE("/:id", protect, adminsAndLeads, tours.DeleteOne)
	mountReviews(tr.Group("/:id/reviews", aliasParam("id", "tourId")), reviews, protect)

	// Users
	users := app.UserFactory()
	ur := v1.Group("/users")
	ur.POST("/signup", app.Signup)
	ur.POST("/login", app.Login)
	ur.GET("/logout", app.Logout)
	ur.POST("/forgotPassword", app.ForgotPassword)
	ur.PATCH("/resetPassword/:token", app.ResetPassword)

	me := ur.Group("", protect)
	me.PATCH("/updateMyPassword", app.UpdatePassword)
	me.GET("/me", h.GetMe, users.GetOne)
	me.PATCH("/updateMe", app.UpdateMe)
	me.DELETE("/deleteMe", app.DeleteMe)

	admin := ur.Group("", protect, middleware.RestrictTo(domain.RoleAdmin))
	admin.GET("", users.GetAll)
	admin.POST("", users.CreateOne)
	admin.GET("/:id", users.GetOne)
	admin.PATCH("/:id", users.UpdateOne)
	admin.DELETE("/:id", users.DeleteOne)

	// Reviews
	mountReviews(v1.Group("/reviews"), reviews, protect)

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(http.StatusNoContent) })
	return r
}

// mountReviews serves both /reviews and the nested /tours/:id/reviews.
func mountReviews[T any](g *gin.RouterGroup, f h.Factory[T], protect gin.HandlerFunc) {
	g.Use(protect)
	g.GET("", f.GetAll)
	g.POST("", middleware.RestrictTo(domain.RoleUser), f.CreateOne)
	g.GET("/:reviewId", aliasParam("reviewId", "id"), f.GetOne)
	g.PATCH("/:reviewId", middleware.RestrictTo(domain.RoleUser, domain.RoleAdmin), aliasParam("reviewId", "id"), f.UpdateOne)
	g.DELETE("/:reviewId", middleware.RestrictTo(domain.RoleUser, domain.RoleAdmin), aliasParam("reviewId", "id"), f.DeleteOne)
}

// aliasParam copies path parameter from into to, replacing any existing value.
// The nested tour routes share the :id segment with /tours/:id.
func aliasParam(from, to string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value := c.Param(from)
		for i := range c.Params {
			if c.Params[i].Key == to {
				c.Params[i].Value = value
				c.Next()
				return
			}
		}
		c.Params = append(c.Params, gin.Param{Key: to, Value: value})
		c.Next()
	}
}
