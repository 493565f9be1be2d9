package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Env struct {
	AppEnv  string
	AppAddr string
	GinMode string

	Database         string
	DatabasePassword string
	MigrateOnStart   bool

	JWTSecret          string
	JWTExpiresIn       time.Duration
	JWTCookieExpiresIn time.Duration

	CORSAllowedOrigins []string
}

// IsProd reports whether errors should be rendered without internal detail.
func (e Env) IsProd() bool {
	return e.AppEnv == "production"
}

// LoadEnv reads config.env (dotenv format) when present; real environment
// variables always win over the file.
func LoadEnv(path string) Env {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("DATABASE", "root:<PASSWORD>@tcp(127.0.0.1:3306)/natours")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me-in-production")
	v.SetDefault("JWT_EXPIRES_IN", "2160h")
	v.SetDefault("JWT_COOKIE_EXPIRES_IN", 90)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			log.Printf("[CONFIG] gagal membaca %s: %v", path, err)
		}
	}

	appAddr := strings.TrimSpace(v.GetString("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":" + strings.TrimSpace(v.GetString("PORT"))
	}

	expires, err := time.ParseDuration(strings.TrimSpace(v.GetString("JWT_EXPIRES_IN")))
	if err != nil || expires <= 0 {
		log.Printf("[CONFIG] JWT_EXPIRES_IN tidak valid (%q), pakai 90 hari", v.GetString("JWT_EXPIRES_IN"))
		expires = 90 * 24 * time.Hour
	}

	cookieDays := v.GetInt("JWT_COOKIE_EXPIRES_IN")
	if cookieDays <= 0 {
		cookieDays = 90
	}

	origins := []string{}
	for _, o := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Env{
		AppEnv:             strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		AppAddr:            appAddr,
		GinMode:            strings.TrimSpace(v.GetString("GIN_MODE")),
		Database:           strings.TrimSpace(v.GetString("DATABASE")),
		DatabasePassword:   v.GetString("DATABASE_PASSWORD"),
		MigrateOnStart:     v.GetBool("MIGRATE_ON_START"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTExpiresIn:       expires,
		JWTCookieExpiresIn: time.Duration(cookieDays) * 24 * time.Hour,
		CORSAllowedOrigins: origins,
	}
}
