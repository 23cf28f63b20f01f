// Package reporting aggregates saved shift rows from the sheet into the
// period summaries behind the dashboard endpoints and the nightly snapshot.
package reporting

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bfall/sawshift/internal/domain/models"
	repo "github.com/bfall/sawshift/internal/repository/sheets"
)

const (
	dateLayout      = "2006-01-02"
	shiftsDataRange = "Shifts!A:J"
	reportsRange    = "Reports!A:G"

	// Shifts sheet columns.
	colDate       = 0
	colEarnings   = 4
	colYield      = 5
	colBoardM3    = 7
	colProductsM3 = 8
	colStatus     = 9
)

// PeriodStats is the aggregate over saved shifts in a date window.
type PeriodStats struct {
	ShiftCount       int     `json:"shift_count"`
	TotalEarnings    float64 `json:"total_earnings"`
	AverageYield     float64 `json:"average_yield"`
	BoardVolumeM3    float64 `json:"board_volume_m3"`
	ProductsVolumeM3 float64 `json:"products_volume_m3"`
}

// Service exposes lightweight analytics over the Shifts range.
type Service struct {
	repo   repo.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(repository repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, logger: logger, now: time.Now}
}

// Summary aggregates saved shifts between start and end inclusive.
// Soft-deleted rows and rows with unparsable cells are skipped.
func (s *Service) Summary(ctx context.Context, start, end time.Time) (PeriodStats, error) {
	rows, err := s.repo.ReadRange(ctx, shiftsDataRange)
	if err != nil {
		return PeriodStats{}, fmt.Errorf("load shifts range: %w", err)
	}

	var stats PeriodStats
	var yieldTotal float64

	for _, row := range rows {
		if len(row) <= colProductsM3 {
			continue
		}

		if len(row) > colStatus && strings.EqualFold(fmt.Sprint(row[colStatus]), string(models.EntryDeleted)) {
			continue
		}

		dateValue, err := parseDate(row[colDate])
		if err != nil {
			s.logger.Debug("skip shift row with invalid date", zap.Any("value", row[colDate]), zap.Error(err))
			continue
		}
		if dateValue.Before(start) || dateValue.After(end) {
			continue
		}

		earnings, err := parseFloat(row[colEarnings])
		if err != nil {
			s.logger.Debug("skip shift row with invalid earnings", zap.Any("value", row[colEarnings]), zap.Error(err))
			continue
		}
		yieldPercent, err := parseFloat(row[colYield])
		if err != nil {
			s.logger.Debug("skip shift row with invalid yield", zap.Any("value", row[colYield]), zap.Error(err))
			continue
		}

		boardM3, _ := parseFloat(row[colBoardM3])
		productsM3, _ := parseFloat(row[colProductsM3])

		stats.ShiftCount++
		stats.TotalEarnings += earnings
		yieldTotal += yieldPercent
		stats.BoardVolumeM3 += boardM3
		stats.ProductsVolumeM3 += productsM3
	}

	if stats.ShiftCount > 0 {
		stats.AverageYield = math.Round(yieldTotal/float64(stats.ShiftCount)*100) / 100
	}

	return stats, nil
}

// FormatSummary renders a period summary as the one-line message used by
// the dashboards and the snapshot log.
func (s *Service) FormatSummary(stats PeriodStats, start, end time.Time) string {
	window := fmt.Sprintf("%s-%s", start.Format(dateLayout), end.Format(dateLayout))
	if stats.ShiftCount == 0 {
		return fmt.Sprintf("Shifts (%s): no records yet.", window)
	}
	return fmt.Sprintf("Shifts (%s): %d boards, earnings %.2f, average yield %.2f%%, %.3f m3 in / %.3f m3 out.",
		window, stats.ShiftCount, stats.TotalEarnings, stats.AverageYield, stats.BoardVolumeM3, stats.ProductsVolumeM3)
}

// BuildDailySummary aggregates one calendar day into the snapshot record.
func (s *Service) BuildDailySummary(ctx context.Context, day time.Time) (models.DailySummary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Second)

	stats, err := s.Summary(ctx, start, end)
	if err != nil {
		return models.DailySummary{}, err
	}

	return models.DailySummary{
		Date:             start,
		ShiftCount:       stats.ShiftCount,
		TotalEarnings:    stats.TotalEarnings,
		AverageYield:     stats.AverageYield,
		BoardVolumeM3:    stats.BoardVolumeM3,
		ProductsVolumeM3: stats.ProductsVolumeM3,
		CreatedAt:        s.now(),
	}, nil
}

// AppendReportRow mirrors a daily summary into the Reports sheet.
func (s *Service) AppendReportRow(ctx context.Context, summary models.DailySummary) error {
	values := []interface{}{
		summary.Date.Format(dateLayout),
		summary.ShiftCount,
		summary.TotalEarnings,
		summary.AverageYield,
		summary.BoardVolumeM3,
		summary.ProductsVolumeM3,
		summary.CreatedAt.Format(time.RFC3339),
	}
	return s.repo.AppendRow(ctx, reportsRange, values)
}

func parseDate(value interface{}) (time.Time, error) {
	str := fmt.Sprint(value)
	if str == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(str) > 10 {
		str = str[:10]
	}
	return time.Parse(dateLayout, str)
}

func parseFloat(value interface{}) (float64, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(str, 64)
}
