// Command import seeds or wipes the dev database from dev-data/data.
//
//	go run ./cmd/import --import
//	go run ./cmd/import --delete
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"natours/internal/config"
	"natours/internal/domain"
	"natours/internal/domain/models"
	"natours/internal/repositories"
	"natours/internal/services"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// seedUser keeps the password, which models.User never decodes.
type seedUser struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Photo    string      `json:"photo"`
	Role     domain.Role `json:"role"`
	Password string      `json:"password"`
}

type seedTour struct {
	ID   int64
	Body map[string]any
}

type seed struct {
	Users   []seedUser
	Tours   []seedTour
	Reviews []models.ReviewInput
}

func main() {
	doImport := flag.Bool("import", false, "load tours, users and reviews")
	doDelete := flag.Bool("delete", false, "delete every tour, user and review")
	dir := flag.String("dir", filepath.Join("dev-data", "data"), "directory holding the JSON files")
	envFile := flag.String("env", "config.env", "config file")
	flag.Parse()

	if *doImport == *doDelete {
		fmt.Fprintln(os.Stderr, "usage: import --import|--delete [--dir dev-data/data]")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	env := config.LoadEnv(*envFile)
	conn, err := config.ConnectDB(ctx, env)
	if err != nil {
		log.Fatalf("Gagal konek database: %v", err)
	}
	defer func() { _ = conn.Close() }()

	imp := newImporter(conn)
	if *doDelete {
		if err := imp.deleteAll(ctx); err != nil {
			log.Fatalf("[IMPORT] hapus data gagal: %v", err)
		}
		log.Println("[IMPORT] Data successfully deleted!")
		return
	}

	s, err := loadSeed(*dir)
	if err != nil {
		log.Fatalf("[IMPORT] baca seed gagal: %v", err)
	}
	if err := imp.load(ctx, s); err != nil {
		log.Fatalf("[IMPORT] import gagal: %v", err)
	}
	log.Printf("[IMPORT] Data successfully loaded! users=%d tours=%d reviews=%d", len(s.Users), len(s.Tours), len(s.Reviews))
}

type importer struct {
	users   repositories.UserRepository
	tours   services.TourService
	reviews services.ReviewService
}

func newImporter(conn *sqlx.DB) importer {
	tours := repositories.TourRepository{DB: conn}
	users := repositories.UserRepository{DB: conn}
	reviews := repositories.ReviewRepository{DB: conn}
	v := services.NewValidator()
	return importer{
		users:   users,
		tours:   services.TourService{Repo: tours, Reviews: reviews, Users: users, Validator: v},
		reviews: services.ReviewService{Repo: reviews, Tours: tours, Users: users, Validator: v},
	}
}

// load inserts users first because tours reference guides and reviews
// reference both.
func (imp importer) load(ctx context.Context, s seed) error {
	for _, u := range s.Users {
		hash, err := passwordHash(u.Password)
		if err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
		_, err = imp.users.Create(ctx, models.User{
			ID:       u.ID,
			Name:     u.Name,
			Email:    strings.ToLower(u.Email),
			Photo:    u.Photo,
			Role:     u.Role,
			Password: hash,
		})
		if err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	for _, t := range s.Tours {
		if err := imp.tours.Import(ctx, t.ID, t.Body); err != nil {
			return fmt.Errorf("tour %d: %w", t.ID, err)
		}
	}
	return imp.reviews.Import(ctx, s.Reviews)
}

// passwordHash keeps bcrypt hashes as they are and hashes plain dev
// passwords.
func passwordHash(p string) (string, error) {
	if strings.HasPrefix(p, "$2a$") || strings.HasPrefix(p, "$2b$") {
		return p, nil
	}
	return models.HashPassword(p)
}

func (imp importer) deleteAll(ctx context.Context) error {
	if err := imp.reviews.Repo.DeleteAll(ctx); err != nil {
		return err
	}
	if err := imp.tours.Repo.DeleteAll(ctx); err != nil {
		return err
	}
	return imp.users.DeleteAll(ctx)
}

func loadSeed(dir string) (seed, error) {
	var s seed
	if err := readJSON(filepath.Join(dir, "users.json"), &s.Users); err != nil {
		return seed{}, err
	}

	var tours []map[string]any
	if err := readJSON(filepath.Join(dir, "tours.json"), &tours); err != nil {
		return seed{}, err
	}
	for i, body := range tours {
		id, ok := body["id"].(float64)
		if !ok || id <= 0 {
			return seed{}, fmt.Errorf("tours.json entry %d has no numeric id", i)
		}
		delete(body, "id")
		s.Tours = append(s.Tours, seedTour{ID: int64(id), Body: body})
	}

	if err := readJSON(filepath.Join(dir, "reviews.json"), &s.Reviews); err != nil {
		return seed{}, err
	}
	return s, nil
}

func readJSON(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
