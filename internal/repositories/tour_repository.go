package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	intdb "natours/internal/db"
	"natours/internal/domain"
	"natours/internal/domain/models"
	"natours/internal/query"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// sphereRadius is the radius in metres ST_Distance_Sphere is asked to use,
// matching the kilometre radius used to turn distances into radians.
const sphereRadius = 6378100.0

// TourSchema exposes the tours table to list queries. Relations (guides, start
// dates, reviews) are resolved separately.
var TourSchema = query.NewSchema("-createdAt",
	query.Field{Name: "id", Column: "id", Kind: query.Number},
	query.Field{Name: "name", Column: "name"},
	query.Field{Name: "slug", Column: "slug"},
	query.Field{Name: "duration", Column: "duration", Kind: query.Number},
	query.Field{Name: "maxGroupSize", Column: "max_group_size", Kind: query.Number},
	query.Field{Name: "difficulty", Column: "difficulty"},
	query.Field{Name: "ratingsAverage", Column: "ratings_average", Kind: query.Number},
	query.Field{Name: "ratingsQuantity", Column: "ratings_quantity", Kind: query.Number},
	query.Field{Name: "price", Column: "price", Kind: query.Number},
	query.Field{Name: "priceDiscount", Column: "price_discount", Kind: query.Number},
	query.Field{Name: "summary", Column: "summary"},
	query.Field{Name: "description", Column: "description"},
	query.Field{Name: "imageCover", Column: "image_cover"},
	query.Field{Name: "images", Column: "images"},
	query.Field{Name: "secretTour", Column: "secret_tour", Kind: query.Bool},
	query.Field{
		Name:   "startLocation",
		Column: "start_location",
		Select: goqu.L("ST_AsBinary(`start_location`)").As("start_location"),
		Also:   []string{"start_address", "start_description"},
	},
	query.Field{Name: "locations", Column: "locations"},
	query.Field{Name: "createdAt", Column: "created_at", Kind: query.Time, Hidden: true},
)

type tourRow struct {
	ID               int64           `db:"id"`
	Name             string          `db:"name"`
	Slug             string          `db:"slug"`
	Duration         int             `db:"duration"`
	MaxGroupSize     int             `db:"max_group_size"`
	Difficulty       string          `db:"difficulty"`
	RatingsAverage   float64         `db:"ratings_average"`
	RatingsQuantity  int             `db:"ratings_quantity"`
	Price            float64         `db:"price"`
	PriceDiscount    sql.NullFloat64 `db:"price_discount"`
	Summary          sql.NullString  `db:"summary"`
	Description      string          `db:"description"`
	ImageCover       string          `db:"image_cover"`
	Images           []byte          `db:"images"`
	SecretTour       bool            `db:"secret_tour"`
	StartLocation    []byte          `db:"start_location"`
	StartAddress     sql.NullString  `db:"start_address"`
	StartDescription sql.NullString  `db:"start_description"`
	Locations        []byte          `db:"locations"`
	CreatedAt        sql.NullTime    `db:"created_at"`
}

func (r tourRow) tour() (models.Tour, error) {
	t := models.Tour{
		ID:              r.ID,
		Name:            r.Name,
		Slug:            r.Slug,
		Duration:        r.Duration,
		MaxGroupSize:    r.MaxGroupSize,
		Difficulty:      domain.Difficulty(r.Difficulty),
		RatingsAverage:  r.RatingsAverage,
		RatingsQuantity: r.RatingsQuantity,
		Price:           r.Price,
		Summary:         r.Summary.String,
		Description:     r.Description,
		ImageCover:      r.ImageCover,
		SecretTour:      r.SecretTour,
	}
	if r.PriceDiscount.Valid {
		d := r.PriceDiscount.Float64
		t.PriceDiscount = &d
	}
	if r.CreatedAt.Valid {
		c := r.CreatedAt.Time
		t.CreatedAt = &c
	}
	if len(r.Images) > 0 {
		if err := json.Unmarshal(r.Images, &t.Images); err != nil {
			return t, fmt.Errorf("tour %d images: %w", r.ID, err)
		}
	}
	if len(r.Locations) > 0 {
		if err := json.Unmarshal(r.Locations, &t.Locations); err != nil {
			return t, fmt.Errorf("tour %d locations: %w", r.ID, err)
		}
	}
	if len(r.StartLocation) > 0 {
		var p orb.Point
		if err := wkb.Scanner(&p).Scan(r.StartLocation); err != nil {
			return t, fmt.Errorf("tour %d start_location: %w", r.ID, err)
		}
		t.StartLocation = models.GeoPoint{
			Type:        "Point",
			Coordinates: p,
			Address:     r.StartAddress.String,
			Description: r.StartDescription.String,
		}
	}
	return t, nil
}

func toTours(rows []tourRow) ([]models.Tour, error) {
	out := make([]models.Tour, 0, len(rows))
	for _, r := range rows {
		t, err := r.tour()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// TourWrite is a validated tour ready for storage.
type TourWrite struct {
	// ID is only set by the dev-data importer to keep references stable.
	ID         int64
	Input      models.TourInput
	Slug       string
	StartDates []time.Time
}

func (w TourWrite) record() (goqu.Record, error) {
	images, err := json.Marshal(nonNil(w.Input.Images))
	if err != nil {
		return nil, err
	}
	locations := w.Input.Locations
	if locations == nil {
		locations = []models.GeoPoint{}
	}
	locs, err := json.Marshal(locations)
	if err != nil {
		return nil, err
	}
	point, err := wkb.Marshal(w.Input.StartLocation.Coordinates)
	if err != nil {
		return nil, err
	}

	rec := goqu.Record{
		"name":              w.Input.Name,
		"slug":              w.Slug,
		"duration":          w.Input.Duration,
		"max_group_size":    w.Input.MaxGroupSize,
		"difficulty":        w.Input.Difficulty,
		"ratings_average":   w.Input.RatingsAverage,
		"ratings_quantity":  w.Input.RatingsQuantity,
		"price":             w.Input.Price,
		"price_discount":    nil,
		"summary":           intdb.NullIfEmpty(w.Input.Summary),
		"description":       w.Input.Description,
		"image_cover":       w.Input.ImageCover,
		"images":            string(images),
		"secret_tour":       w.Input.SecretTour,
		"start_location":    goqu.L("ST_GeomFromWKB(?)", point),
		"start_address":     intdb.NullIfEmpty(w.Input.StartLocation.Address),
		"start_description": intdb.NullIfEmpty(w.Input.StartLocation.Description),
		"locations":         string(locs),
	}
	if w.Input.PriceDiscount != nil {
		rec["price_discount"] = *w.Input.PriceDiscount
	}
	return rec, nil
}

func (w TourWrite) insertRecord() (goqu.Record, error) {
	rec, err := w.record()
	if err != nil {
		return nil, err
	}
	if w.ID > 0 {
		rec["id"] = w.ID
	}
	return rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// TourRepository stores tours plus their start dates and guide links.
type TourRepository struct {
	DB *sqlx.DB
}

// Base is the tours dataset every read starts from: secret tours are never
// visible.
func (r TourRepository) Base() *goqu.SelectDataset {
	return dialect.From("tours").Prepared(true).Where(goqu.C("secret_tour").IsFalse())
}

func (r TourRepository) Query(params url.Values) *query.Features {
	return query.New(r.Base(), params, TourSchema)
}

func (r TourRepository) Find(ctx context.Context, f *query.Features) ([]models.Tour, error) {
	var rows []tourRow
	if err := selectAll(ctx, r.DB, f.Dataset(), &rows); err != nil {
		return nil, err
	}
	return toTours(rows)
}

func (r TourRepository) FindByID(ctx context.Context, id int64) (models.Tour, error) {
	return r.findOne(ctx, goqu.C("id").Eq(id))
}

func (r TourRepository) FindBySlug(ctx context.Context, slug string) (models.Tour, error) {
	return r.findOne(ctx, goqu.C("slug").Eq(slug))
}

func (r TourRepository) findOne(ctx context.Context, pred exp.Expression) (models.Tour, error) {
	var row tourRow
	ds := r.Base().Select(TourSchema.Columns()...).Where(pred)
	if err := getOne(ctx, r.DB, ds, &row, "tour"); err != nil {
		return models.Tour{}, err
	}
	return row.tour()
}

// Create inserts the tour with its start dates and guides in one transaction.
func (r TourRepository) Create(ctx context.Context, w TourWrite) (int64, error) {
	rec, err := w.insertRecord()
	if err != nil {
		return 0, domain.InternalError{Msg: "failed to encode tour", Err: err}
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer rollback(tx)

	res, err := exec(ctx, tx, dialect.Insert("tours").Prepared(true).Rows(rec))
	if err != nil {
		return 0, writeErr(err, "tour")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := r.writeStartDates(ctx, tx, id, w.StartDates); err != nil {
		return 0, err
	}
	if err := r.writeGuides(ctx, tx, id, w.Input.Guides); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// Update rewrites the tour row. Child tables are only replaced when the patch
// carried them.
func (r TourRepository) Update(ctx context.Context, id int64, w TourWrite, replaceDates, replaceGuides bool) error {
	rec, err := w.record()
	if err != nil {
		return domain.InternalError{Msg: "failed to encode tour", Err: err}
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	upd := dialect.Update("tours").Prepared(true).Set(rec).Where(goqu.C("id").Eq(id), goqu.C("secret_tour").IsFalse())
	if _, err := exec(ctx, tx, upd); err != nil {
		return writeErr(err, "tour")
	}
	if replaceDates {
		if _, err := exec(ctx, tx, dialect.Delete("tour_start_dates").Prepared(true).Where(goqu.C("tour_id").Eq(id))); err != nil {
			return err
		}
		if err := r.writeStartDates(ctx, tx, id, w.StartDates); err != nil {
			return err
		}
	}
	if replaceGuides {
		if _, err := exec(ctx, tx, dialect.Delete("tour_guides").Prepared(true).Where(goqu.C("tour_id").Eq(id))); err != nil {
			return err
		}
		if err := r.writeGuides(ctx, tx, id, w.Input.Guides); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r TourRepository) writeStartDates(ctx context.Context, tx *sqlx.Tx, tourID int64, dates []time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	rows := make([]any, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, goqu.Record{"tour_id": tourID, "starts_at": d.UTC()})
	}
	_, err := exec(ctx, tx, dialect.Insert("tour_start_dates").Prepared(true).Rows(rows...))
	return err
}

func (r TourRepository) writeGuides(ctx context.Context, tx *sqlx.Tx, tourID int64, guides []int64) error {
	if len(guides) == 0 {
		return nil
	}
	rows := make([]any, 0, len(guides))
	seen := map[int64]bool{}
	for i, g := range guides {
		if seen[g] {
			continue
		}
		seen[g] = true
		rows = append(rows, goqu.Record{"tour_id": tourID, "user_id": g, "position": i})
	}
	_, err := exec(ctx, tx, dialect.Insert("tour_guides").Prepared(true).Rows(rows...))
	return writeErr(err, "guides")
}

func (r TourRepository) Delete(ctx context.Context, id int64) error {
	res, err := exec(ctx, r.DB, dialect.Delete("tours").Prepared(true).Where(goqu.C("id").Eq(id), goqu.C("secret_tour").IsFalse()))
	if err != nil {
		return err
	}
	return affected(res, "tour")
}

// DeleteAll is used by the dev-data importer.
func (r TourRepository) DeleteAll(ctx context.Context) error {
	_, err := exec(ctx, r.DB, dialect.Delete("tours").Prepared(true))
	return err
}

// SetRatings writes the aggregate recomputed from reviews.
func (r TourRepository) SetRatings(ctx context.Context, tourID int64, stats models.RatingStats) error {
	upd := dialect.Update("tours").Prepared(true).
		Set(goqu.Record{"ratings_quantity": stats.Quantity, "ratings_average": stats.Average}).
		Where(goqu.C("id").Eq(tourID))
	_, err := exec(ctx, r.DB, upd)
	return err
}

// Within lists tours whose start location lies inside the spherical cap of
// the given radius in radians around (lng, lat).
func (r TourRepository) Within(ctx context.Context, center orb.Point, radians float64) ([]models.Tour, error) {
	ds := r.Base().
		Select(TourSchema.Columns()...).
		Where(goqu.L("ST_Distance_Sphere(`start_location`, POINT(?, ?), ?) <= ?",
			center.Lon(), center.Lat(), sphereRadius, radians*sphereRadius)).
		Order(goqu.C("id").Asc())

	var rows []tourRow
	if err := selectAll(ctx, r.DB, ds, &rows); err != nil {
		return nil, err
	}
	return toTours(rows)
}

// Distances returns every visible tour's distance from center in metres
// scaled by multiplier, nearest first.
func (r TourRepository) Distances(ctx context.Context, center orb.Point, multiplier float64) ([]models.TourDistance, error) {
	ds := r.Base().
		Select(
			goqu.C("id"),
			goqu.C("name"),
			goqu.L("ST_Distance_Sphere(`start_location`, POINT(?, ?), ?) * ?",
				center.Lon(), center.Lat(), sphereRadius, multiplier).As("distance"),
		).
		Order(goqu.I("distance").Asc(), goqu.C("id").Asc())

	out := []models.TourDistance{}
	if err := selectAll(ctx, r.DB, ds, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StartDates loads the start dates of many tours in one query.
func (r TourRepository) StartDates(ctx context.Context, tourIDs []int64) (map[int64][]time.Time, error) {
	out := make(map[int64][]time.Time, len(tourIDs))
	if len(tourIDs) == 0 {
		return out, nil
	}
	ds := dialect.From("tour_start_dates").
		Select("tour_id", "starts_at").
		Where(goqu.C("tour_id").In(int64Args(tourIDs)...)).
		Order(goqu.C("tour_id").Asc(), goqu.C("starts_at").Asc())

	var rows []struct {
		TourID   int64     `db:"tour_id"`
		StartsAt time.Time `db:"starts_at"`
	}
	if err := selectAll(ctx, r.DB, ds, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TourID] = append(out[row.TourID], row.StartsAt)
	}
	return out, nil
}

// Guides loads the active guides of many tours in one query, in the order they
// were assigned.
func (r TourRepository) Guides(ctx context.Context, tourIDs []int64) (map[int64][]models.Guide, error) {
	out := make(map[int64][]models.Guide, len(tourIDs))
	if len(tourIDs) == 0 {
		return out, nil
	}
	ds := dialect.From(goqu.T("tour_guides").As("tg")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.Ex{"u.id": goqu.I("tg.user_id")})).
		Select(
			goqu.I("tg.tour_id").As("tour_id"),
			goqu.I("u.id").As("id"),
			goqu.I("u.name").As("name"),
			goqu.I("u.email").As("email"),
			goqu.I("u.photo").As("photo"),
			goqu.I("u.role").As("role"),
		).
		Where(goqu.I("tg.tour_id").In(int64Args(tourIDs)...), goqu.I("u.active").IsTrue()).
		Order(goqu.I("tg.tour_id").Asc(), goqu.I("tg.position").Asc())

	var rows []struct {
		TourID int64 `db:"tour_id"`
		models.Guide
	}
	if err := selectAll(ctx, r.DB, ds, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TourID] = append(out[row.TourID], row.Guide)
	}
	return out, nil
}

func int64Args(ids []int64) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, id)
	}
	return out
}
