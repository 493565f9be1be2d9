package services

import (
	"context"
	"fmt"
	"time"

	"natours/internal/domain"
	"natours/internal/domain/models"
	"natours/internal/utils"
)

// MinSummaryRating is the rating floor of the ratings summary.
const MinSummaryRating = 4.5

type ReportSource interface {
	RatingsSummary(ctx context.Context, minRating float64) ([]models.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error)
}

type ReportsService struct {
	Repo ReportSource
}

// RatingsSummary returns per-difficulty stats of well rated tours.
func (s ReportsService) RatingsSummary(ctx context.Context) ([]models.TourStats, error) {
	return s.Repo.RatingsSummary(ctx, MinSummaryRating)
}

// MonthlyPlan parses the year path segment and returns at most twelve months.
func (s ReportsService) MonthlyPlan(ctx context.Context, yearRaw string) (int, []models.MonthlyPlan, error) {
	year, err := ParseYear(yearRaw)
	if err != nil {
		return 0, nil, err
	}
	plan, err := s.Repo.MonthlyPlan(ctx, year)
	if err != nil {
		return 0, nil, err
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "reports", "monthly_plan", fmt.Sprintf("year=%d months=%d", year, len(plan)))
	return year, plan, nil
}

func ParseYear(raw string) (int, error) {
	t, err := time.Parse("2006", raw)
	if err != nil {
		return 0, domain.ValidationError{Field: "year", Msg: fmt.Sprintf("Invalid year: %s.", raw)}
	}
	return t.Year(), nil
}
