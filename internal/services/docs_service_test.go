package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"natours/internal/domain"
	"natours/internal/domain/models"

	"github.com/xuri/excelize/v2"
)

type fakeReports struct {
	stats    []models.TourStats
	plan     []models.MonthlyPlan
	gotYear  int
	gotFloor float64
}

func (f *fakeReports) RatingsSummary(_ context.Context, minRating float64) ([]models.TourStats, error) {
	f.gotFloor = minRating
	return f.stats, nil
}

func (f *fakeReports) MonthlyPlan(_ context.Context, year int) ([]models.MonthlyPlan, error) {
	f.gotYear = year
	return f.plan, nil
}

func TestDocsServiceMonthlyPlanPDF(t *testing.T) {
	src := &fakeReports{plan: []models.MonthlyPlan{
		{Month: 7, NumTourStarts: 3, Tours: []string{"The Sea Explorer", "The Park Camper", "The Sports Lover"}},
		{Month: 2, NumTourStarts: 1, Tours: []string{"The Wine Taster"}},
	}}
	svc := DocsService{
		Reports: ReportsService{Repo: src},
		Now:     func() time.Time { return time.Date(2021, 1, 2, 3, 4, 0, 0, time.UTC) },
	}

	pdf, filename, err := svc.MonthlyPlanPDF(context.Background(), "2021")
	if err != nil {
		t.Fatalf("MonthlyPlanPDF returned error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
	if filename != "MONTHLY_PLAN_2021.pdf" {
		t.Fatalf("unexpected filename %q", filename)
	}
	if src.gotYear != 2021 {
		t.Fatalf("year not forwarded, got %d", src.gotYear)
	}
}

func TestDocsServiceRejectsBadYear(t *testing.T) {
	svc := DocsService{Reports: ReportsService{Repo: &fakeReports{}}}
	if _, _, err := svc.MonthlyPlanPDF(context.Background(), "20x1"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExportServiceRatingsSummaryXLSX(t *testing.T) {
	src := &fakeReports{stats: []models.TourStats{
		{Difficulty: "EASY", NumTours: 4, NumRatings: 24, AvgRating: 4.7166, AvgPrice: 1272, MinPrice: 397, MaxPrice: 1997},
	}}
	out, filename, err := ExportService{Reports: ReportsService{Repo: src}}.RatingsSummaryXLSX(context.Background())
	if err != nil {
		t.Fatalf("RatingsSummaryXLSX returned error: %v", err)
	}
	if filename != "TOUR_STATS.xlsx" || src.gotFloor != MinSummaryRating {
		t.Fatalf("unexpected filename %q or floor %v", filename, src.gotFloor)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("workbook unreadable: %v", err)
	}
	defer f.Close()

	header, _ := f.GetCellValue(statsSheet, "A1")
	difficulty, _ := f.GetCellValue(statsSheet, "A2")
	avg, _ := f.GetCellValue(statsSheet, "D2")
	if header != "Difficulty" || difficulty != "EASY" {
		t.Fatalf("unexpected cells: %q %q", header, difficulty)
	}
	if avg != "4.7166" {
		t.Fatalf("average rating should be the raw mean, got %q", avg)
	}
}

func TestRatingsSummaryKeepsUnroundedAverage(t *testing.T) {
	src := &fakeReports{stats: []models.TourStats{
		{Difficulty: "MEDIUM", NumTours: 3, NumRatings: 19, AvgRating: 4.8333333, AvgPrice: 1497, MinPrice: 497, MaxPrice: 2997},
	}}
	stats, err := ReportsService{Repo: src}.RatingsSummary(context.Background())
	if err != nil {
		t.Fatalf("RatingsSummary returned error: %v", err)
	}
	if len(stats) != 1 || stats[0].AvgRating != 4.8333333 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if src.gotFloor != MinSummaryRating {
		t.Fatalf("expected floor %v, got %v", MinSummaryRating, src.gotFloor)
	}
}
