package service

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/metrics"
	"context"
	"math"
)

// SummaryService computes the per-user fitness summary.
type SummaryService interface {
	// Summary reads every entry and aggregates it. Nothing is cached: each call
	// scans the store again.
	Summary(ctx context.Context) ([]domain.AggregateRow, error)
}

type summaryService struct {
	entries EntryService
	metrics *metrics.Metrics
}

// NewSummaryService creates a new SummaryService reading through entries.
func NewSummaryService(entries EntryService, m *metrics.Metrics) SummaryService {
	return &summaryService{entries: entries, metrics: m}
}

func (s *summaryService) Summary(ctx context.Context) ([]domain.AggregateRow, error) {
	all, err := s.entries.All(ctx)
	if err != nil {
		return nil, err
	}
	rows := Aggregate(all)
	s.metrics.SummaryScanned(len(all), len(rows))
	return rows, nil
}

// Aggregate groups entries by owner email and sums steps, calories and water.
// Groups appear in the order their owner was first seen; SequenceNumber is the
// 1-based position in that order. Entries without an owner are grouped under
// domain.UnknownOwner. Non-finite values count as 0.
func Aggregate(entries []domain.Entry) []domain.AggregateRow {
	rows := []domain.AggregateRow{}
	index := make(map[string]int)

	for _, e := range entries {
		owner := e.OwnerEmail
		if owner == "" {
			owner = domain.UnknownOwner
		}
		i, ok := index[owner]
		if !ok {
			i = len(rows)
			index[owner] = i
			rows = append(rows, domain.AggregateRow{SequenceNumber: i + 1, OwnerEmail: owner})
		}
		rows[i].TotalSteps += finite(e.Steps)
		rows[i].TotalCalories += finite(e.Calories)
		rows[i].TotalWaterIntake += finite(e.WaterIntake)
	}
	return rows
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
