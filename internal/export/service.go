package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dshalev/slide-explainer/internal/status"
)

// Service is a tiny façade over the status service that produces XLSX
// bytes for history exports.
type Service struct {
	status *status.Service
	logger *slog.Logger
}

func NewService(status *status.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{status: status, logger: logger}
}

// ExportHistoryXLSX returns an XLSX workbook (as bytes) with one row per
// upload of the owner, newest first.
func (s *Service) ExportHistoryXLSX(ctx context.Context, email string) ([]byte, error) {
	start := time.Now()

	jobs, total, err := s.status.History(ctx, email)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "History"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Filename",
		"Status",
		"Style",
		"Language",
		"Uploaded At",
		"Finished At",
		"Slides",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, j := range jobs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, j.Filename)
		write(2, string(j.Status))
		write(3, string(j.SummaryStyle))
		write(4, string(j.Language))
		write(5, j.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		if j.FinishedAt != nil {
			write(6, j.FinishedAt.UTC().Format("2006-01-02 15:04:05"))
		} else {
			write(6, "")
		}
		if len(j.Summaries) > 0 {
			write(7, len(j.Summaries))
		} else {
			write(7, "")
		}
		if j.ErrorMessage != nil {
			write(8, truncate(*j.ErrorMessage, 140))
		} else {
			write(8, "")
		}

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 36) // filename
	_ = f.SetColWidth(sheet, "B", "D", 14) // status, style, language
	_ = f.SetColWidth(sheet, "E", "F", 20) // timestamps
	_ = f.SetColWidth(sheet, "G", "G", 8)  // slides
	_ = f.SetColWidth(sheet, "H", "H", 48) // error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", total,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
