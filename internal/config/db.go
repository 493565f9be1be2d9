package config

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// DSN assembles the driver DSN from DATABASE, substituting the <PASSWORD>
// placeholder and forcing the options the repositories rely on.
func (e Env) DSN() (string, error) {
	raw := strings.ReplaceAll(e.Database, "<PASSWORD>", e.DatabasePassword)
	cfg, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("DATABASE tidak valid: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = true
	cfg.Timeout = 5 * time.Second
	cfg.ReadTimeout = 30 * time.Second
	cfg.WriteTimeout = 30 * time.Second
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["charset"] = "utf8mb4"
	return cfg.FormatDSN(), nil
}

// ConnectDB opens the process-wide pool. The caller owns it and closes it on shutdown.
func ConnectDB(ctx context.Context, env Env) (*sqlx.DB, error) {
	dsn, err := env.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("gagal open DB: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("gagal ping DB: %w", err)
	}

	log.Println("Berhasil konek ke database MySQL")
	return db, nil
}
