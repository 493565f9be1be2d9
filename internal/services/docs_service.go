package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"natours/internal/domain/models"
	"natours/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders report documents.
type DocsService struct {
	Reports ReportsService
	Now     func() time.Time
}

func (s DocsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

// MonthlyPlanPDF renders the monthly plan of a year as an A4 table.
func (s DocsService) MonthlyPlanPDF(ctx context.Context, yearRaw string) ([]byte, string, error) {
	year, plan, err := s.Reports.MonthlyPlan(ctx, yearRaw)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "docs", "generate_monthly_plan", fmt.Sprintf("year=%d", year))
	return buildMonthlyPlanPDF(year, plan, s.now())
}

func buildMonthlyPlanPDF(year int, plan []models.MonthlyPlan, generated time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Monthly plan %d", year), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, fmt.Sprintf("MONTHLY PLAN %d", year))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Generated: "+utils.FormatDateTime(generated)+" UTC")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(30, 8, "Month", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Starts", "1", 0, "R", false, 0, "")
	pdf.CellFormat(130, 8, "Tours", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if len(plan) == 0 {
		pdf.CellFormat(190, 8, "No tour starts in this year.", "1", 1, "C", false, 0, "")
	}
	for _, row := range plan {
		tours := safe(strings.Join(row.Tours, ", "), "-")
		lines := pdf.SplitText(tours, 126)
		h := float64(len(lines)) * 6
		if h < 8 {
			h = 8
		}
		x, y := pdf.GetXY()
		pdf.CellFormat(30, h, time.Month(row.Month).String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, h, fmt.Sprintf("%d", row.NumTourStarts), "1", 0, "R", false, 0, "")
		pdf.MultiCell(130, h/float64(len(lines)), strings.Join(lines, "\n"), "1", "L", false)
		pdf.SetXY(x, y+h)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("MONTHLY_PLAN_%d.pdf", year), nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
