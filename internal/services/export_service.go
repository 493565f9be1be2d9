package services

import (
	"context"
	"fmt"

	"natours/internal/domain/models"
	"natours/internal/utils"

	"github.com/xuri/excelize/v2"
)

const statsSheet = "Tour stats"

var statsHeader = []any{"Difficulty", "Tours", "Ratings", "Avg rating", "Avg price", "Min price", "Max price"}

// ExportService renders reports as spreadsheets.
type ExportService struct {
	Reports ReportsService
}

// RatingsSummaryXLSX writes the ratings summary as a single-sheet workbook.
func (s ExportService) RatingsSummaryXLSX(ctx context.Context) ([]byte, string, error) {
	stats, err := s.Reports.RatingsSummary(ctx)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "export", "ratings_summary_xlsx", fmt.Sprintf("rows=%d", len(stats)))
	out, err := buildStatsWorkbook(stats)
	if err != nil {
		return nil, "", err
	}
	return out, "TOUR_STATS.xlsx", nil
}

func buildStatsWorkbook(stats []models.TourStats) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", statsSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(statsSheet, "A1", &statsHeader); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(statsSheet, "A1", "G1", bold); err != nil {
		return nil, err
	}

	for i, st := range stats {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{st.Difficulty, st.NumTours, st.NumRatings, st.AvgRating, st.AvgPrice, st.MinPrice, st.MaxPrice}
		if err := f.SetSheetRow(statsSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
