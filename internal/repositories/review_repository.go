package repositories

import (
	"context"
	"net/url"

	"natours/internal/domain/models"
	"natours/internal/query"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

var ReviewSchema = query.NewSchema("-createdAt",
	query.Field{Name: "id", Column: "id", Kind: query.Number},
	query.Field{Name: "review", Column: "review"},
	query.Field{Name: "rating", Column: "rating", Kind: query.Number},
	query.Field{Name: "createdAt", Column: "created_at", Kind: query.Time},
	query.Field{Name: "tour", Column: "tour_id", Kind: query.Number},
	query.Field{Name: "userId", Column: "user_id", Kind: query.Number},
)

type ReviewRepository struct {
	DB *sqlx.DB
}

func (r ReviewRepository) Base() *goqu.SelectDataset {
	return dialect.From("reviews").Prepared(true)
}

func (r ReviewRepository) Query(params url.Values) *query.Features {
	return query.New(r.Base(), params, ReviewSchema)
}

func (r ReviewRepository) Find(ctx context.Context, f *query.Features) ([]models.Review, error) {
	out := []models.Review{}
	if err := selectAll(ctx, r.DB, f.Dataset(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r ReviewRepository) FindByID(ctx context.Context, id int64) (models.Review, error) {
	var out models.Review
	ds := r.Base().Select(ReviewSchema.Columns()...).Where(goqu.C("id").Eq(id))
	if err := getOne(ctx, r.DB, ds, &out, "review"); err != nil {
		return models.Review{}, err
	}
	return out, nil
}

// Create relies on the (tour_id, user_id) unique key for one review per user and tour.
func (r ReviewRepository) Create(ctx context.Context, in models.ReviewInput) (int64, error) {
	res, err := exec(ctx, r.DB, dialect.Insert("reviews").Prepared(true).Rows(goqu.Record{
		"review":  in.Review,
		"rating":  in.Rating,
		"tour_id": in.Tour,
		"user_id": in.User,
	}))
	if err != nil {
		return 0, writeErr(err, "review")
	}
	return res.LastInsertId()
}

func (r ReviewRepository) Update(ctx context.Context, id int64, in models.ReviewInput) error {
	_, err := exec(ctx, r.DB, dialect.Update("reviews").Prepared(true).Set(goqu.Record{
		"review":  in.Review,
		"rating":  in.Rating,
		"tour_id": in.Tour,
		"user_id": in.User,
	}).Where(goqu.C("id").Eq(id)))
	return writeErr(err, "review")
}

func (r ReviewRepository) Delete(ctx context.Context, id int64) error {
	res, err := exec(ctx, r.DB, dialect.Delete("reviews").Prepared(true).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return err
	}
	return affected(res, "review")
}

func (r ReviewRepository) DeleteAll(ctx context.Context) error {
	_, err := exec(ctx, r.DB, dialect.Delete("reviews").Prepared(true))
	return err
}

// ForTours loads the reviews of many tours in one query, newest first.
func (r ReviewRepository) ForTours(ctx context.Context, tourIDs []int64) (map[int64][]models.Review, error) {
	out := make(map[int64][]models.Review, len(tourIDs))
	if len(tourIDs) == 0 {
		return out, nil
	}
	var rows []models.Review
	ds := r.Base().
		Select(ReviewSchema.Columns()...).
		Where(goqu.C("tour_id").In(int64Args(tourIDs)...)).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Asc())
	if err := selectAll(ctx, r.DB, ds, &rows); err != nil {
		return nil, err
	}
	for _, rv := range rows {
		out[rv.TourID] = append(out[rv.TourID], rv)
	}
	return out, nil
}

// CalcRatings aggregates the reviews of one tour. Average is 0 when the tour
// has none; the caller applies the default.
func (r ReviewRepository) CalcRatings(ctx context.Context, tourID int64) (models.RatingStats, error) {
	var stats models.RatingStats
	ds := r.Base().
		Select(
			goqu.COUNT("id").As("n_rating"),
			goqu.COALESCE(goqu.AVG("rating"), 0).As("avg_rating"),
		).
		Where(goqu.C("tour_id").Eq(tourID))
	if err := getOne(ctx, r.DB, ds, &stats, "review"); err != nil {
		return models.RatingStats{}, err
	}
	return stats, nil
}
