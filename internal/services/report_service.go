package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

// ReportService is the reporting engine: it fetches a month of
// transactions and hands them to the report package for aggregation.
type ReportService struct {
	store TransactionStore
	now   func() time.Time
}

func NewReportService(store TransactionStore) *ReportService {
	return &ReportService{store: store, now: time.Now}
}

// SetClock replaces the time source used to place the trend window.
func (s *ReportService) SetClock(now func() time.Time) {
	s.now = now
}

// MonthlySummary aggregates every transaction dated in the calendar month.
func (s *ReportService) MonthlySummary(ctx context.Context, userID string, year, month int) (core.MonthlySummary, error) {
	if month < 1 || month > 12 {
		return core.MonthlySummary{}, core.Validation("Month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return core.MonthlySummary{}, core.Validation("Invalid year")
	}

	start, end := core.MonthBounds(year, month)
	txs, err := s.store.QueryTransactions(ctx, userID, core.TransactionFilter{
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("load transactions for %04d-%02d: %w", year, month, err)
	}
	return report.Monthly(year, month, txs), nil
}

// SpendingTrends summarises the six months ending with the current one,
// oldest first. The months are loaded concurrently.
func (s *ReportService) SpendingTrends(ctx context.Context, userID string) ([]core.TrendPoint, error) {
	window := report.TrendWindow(s.now())
	points := make([]core.TrendPoint, len(window))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range window {
		g.Go(func() error {
			summary, err := s.MonthlySummary(gctx, userID, m.Year, m.Month)
			if err != nil {
				return err
			}
			points[i] = report.TrendPoint(summary)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
