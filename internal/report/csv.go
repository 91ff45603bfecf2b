// Package report renders the fitness summary for export.
package report

import (
	"alcyxob/fitlog/internal/domain"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// WriteSummaryCSV writes the summary table with a short header block.
func WriteSummaryCSV(w io.Writer, rows []domain.AggregateRow, generatedAt time.Time) error {
	csvWriter := csv.NewWriter(w)

	header := [][]string{
		{"User Fitness Summary"},
		{"Generated", generatedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Users", strconv.Itoa(len(rows))},
		{}, // Empty row
		{"Sr. No.", "Name (Email)", "Total Steps", "Total Calories", "Total Water Intake (L)"},
	}
	for _, row := range header {
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	if len(rows) == 0 {
		if err := csvWriter.Write([]string{"No data available"}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.SequenceNumber),
			r.OwnerEmail,
			formatNumber(r.TotalSteps),
			formatNumber(r.TotalCalories),
			formatNumber(r.TotalWaterIntake),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// formatNumber prints integers without a fraction and everything else with
// the shortest exact representation.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
