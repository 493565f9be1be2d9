package repositories

import (
	"context"
	"fmt"
	"time"

	"natours/internal/domain/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

// ReportRepository runs the aggregation reports over visible tours.
type ReportRepository struct {
	DB *sqlx.DB
}

func (r ReportRepository) tours() TourRepository { return TourRepository{DB: r.DB} }

// RatingsSummary groups tours rated at least minRating by difficulty,
// cheapest group first. Groups without a qualifying tour are absent.
func (r ReportRepository) RatingsSummary(ctx context.Context, minRating float64) ([]models.TourStats, error) {
	upper := goqu.L("UPPER(`difficulty`)")
	ds := r.tours().Base().
		Select(
			upper.As("difficulty"),
			goqu.COUNT("id").As("num_tours"),
			goqu.L("CAST(COALESCE(SUM(`ratings_quantity`), 0) AS SIGNED)").As("num_ratings"),
			goqu.AVG("ratings_average").As("avg_rating"),
			goqu.AVG("price").As("avg_price"),
			goqu.MIN("price").As("min_price"),
			goqu.MAX("price").As("max_price"),
		).
		Where(goqu.C("ratings_average").Gte(minRating)).
		GroupBy(upper).
		Order(goqu.I("avg_price").Asc())

	out := []models.TourStats{}
	if err := selectAll(ctx, r.DB, ds, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type monthlyRow struct {
	Month         int    `db:"month"`
	NumTourStarts int    `db:"num_tour_starts"`
	Tours         []byte `db:"tours"`
}

// MonthlyPlan counts tour starts per month of year, busiest month first, at
// most twelve rows.
func (r ReportRepository) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	month := goqu.L("MONTH(`sd`.`starts_at`)")

	ds := dialect.From(goqu.T("tour_start_dates").As("sd")).
		Join(goqu.T("tours").As("t"), goqu.On(goqu.Ex{"t.id": goqu.I("sd.tour_id")})).
		Select(
			month.As("month"),
			goqu.COUNT(goqu.Star()).As("num_tour_starts"),
			goqu.L("JSON_ARRAYAGG(`t`.`name`)").As("tours"),
		).
		Where(
			goqu.I("t.secret_tour").IsFalse(),
			goqu.I("sd.starts_at").Gte(from),
			goqu.I("sd.starts_at").Lt(to),
		).
		GroupBy(month).
		Order(goqu.I("num_tour_starts").Desc(), goqu.I("month").Asc()).
		Limit(12)

	var rows []monthlyRow
	if err := selectAll(ctx, r.DB, ds, &rows); err != nil {
		return nil, err
	}

	out := make([]models.MonthlyPlan, 0, len(rows))
	for _, row := range rows {
		plan := models.MonthlyPlan{Month: row.Month, NumTourStarts: row.NumTourStarts, Tours: []string{}}
		if len(row.Tours) > 0 {
			if err := json.Unmarshal(row.Tours, &plan.Tours); err != nil {
				return nil, fmt.Errorf("monthly plan tours: %w", err)
			}
		}
		out = append(out, plan)
	}
	return out, nil
}
