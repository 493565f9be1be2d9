package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"natours/internal/config"
	"natours/internal/db"
	router "natours/internal/http"
	h "natours/internal/http/handlers"
	"natours/internal/repositories"
	"natours/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/gzhttp"
)

func main() {
	env := config.LoadEnv("config.env")
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	} else if env.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := config.ConnectDB(context.Background(), env)
	if err != nil {
		log.Fatalf("Gagal konek database: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if env.MigrateOnStart {
		if err := db.RunMigrations(conn.DB); err != nil {
			log.Fatalf("Migrasi gagal: %v", err)
		}
	}

	r := router.NewRouter(newApp(env, conn))

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           gzhttp.GzipHandler(r),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server berjalan di http://localhost%s (env=%s)", env.AppAddr, env.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Gagal menjalankan server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Mematikan server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Shutdown server gagal: %v", err)
	}

	log.Println("Server berhenti dengan aman.")
}

func newApp(env config.Env, conn *sqlx.DB) *h.App {
	tours := repositories.TourRepository{DB: conn}
	users := repositories.UserRepository{DB: conn}
	reviews := repositories.ReviewRepository{DB: conn}
	validator := services.NewValidator()

	userSvc := services.UserService{Repo: users, Validator: validator}
	reports := services.ReportsService{Repo: repositories.ReportRepository{DB: conn}}

	return &h.App{
		Env:     env,
		DB:      conn,
		Tours:   services.TourService{Repo: tours, Reviews: reviews, Users: users, Validator: validator},
		Users:   userSvc,
		Reviews: services.ReviewService{Repo: reviews, Tours: tours, Users: users, Validator: validator},
		Auth: services.AuthService{
			Users:     userSvc,
			Secret:    []byte(env.JWTSecret),
			ExpiresIn: env.JWTExpiresIn,
			Mailer:    services.LogMailer{},
		},
		Reports: reports,
		Docs:    services.DocsService{Reports: reports},
		Export:  services.ExportService{Reports: reports},
	}
}
