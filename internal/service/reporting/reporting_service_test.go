package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rows     [][]interface{}
	appended [][]interface{}
}

func (f *fakeRepo) AppendRow(ctx context.Context, sheetRange string, values []interface{}) error {
	f.appended = append(f.appended, values)
	return nil
}

func (f *fakeRepo) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	return f.rows, nil
}

func shiftRow(date string, earnings, yieldPercent, boardM3, productsM3, status string) []interface{} {
	return []interface{}{date, "board-x", "batch-7", "2000x150x50", earnings, yieldPercent, "2", boardM3, productsM3, status}
}

func TestSummary(t *testing.T) {
	repo := &fakeRepo{rows: [][]interface{}{
		shiftRow("2026-08-20", "300", "26", "0.015", "0.00384", "active"),
		shiftRow("2026-08-21", "150", "40", "0.010", "0.00400", "active"),
		shiftRow("2026-08-21", "999", "90", "0.020", "0.01800", "deleted"), // soft-deleted, skipped
		shiftRow("2026-07-01", "500", "70", "0.030", "0.02100", "active"),  // outside window
		shiftRow("not-a-date", "1", "1", "0.001", "0.00100", "active"),
		{"2026-08-21", "board-y"}, // short row
	}}
	svc := NewService(repo, nil)

	start := time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 23, 23, 59, 59, 0, time.UTC)

	stats, err := svc.Summary(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.ShiftCount)
	assert.InDelta(t, 450, stats.TotalEarnings, 1e-9)
	assert.InDelta(t, 33, stats.AverageYield, 1e-9)
	assert.InDelta(t, 0.025, stats.BoardVolumeM3, 1e-9)
	assert.InDelta(t, 0.00784, stats.ProductsVolumeM3, 1e-9)
}

func TestSummaryEmpty(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)

	start := time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	stats, err := svc.Summary(context.Background(), start, end)
	require.NoError(t, err)
	assert.Zero(t, stats.ShiftCount)
	assert.Contains(t, svc.FormatSummary(stats, start, end), "no records yet")
}

func TestBuildDailySummary(t *testing.T) {
	repo := &fakeRepo{rows: [][]interface{}{
		shiftRow("2026-08-22", "300", "26", "0.015", "0.00384", "active"),
		shiftRow("2026-08-23", "100", "50", "0.005", "0.00250", "active"),
	}}
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return time.Date(2026, 8, 23, 21, 0, 0, 0, time.UTC) }

	summary, err := svc.BuildDailySummary(context.Background(), time.Date(2026, 8, 22, 15, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ShiftCount)
	assert.InDelta(t, 300, summary.TotalEarnings, 1e-9)
	assert.Equal(t, 22, summary.Date.Day())
	assert.False(t, summary.CreatedAt.IsZero())

	require.NoError(t, svc.AppendReportRow(context.Background(), summary))
	require.Len(t, repo.appended, 1)
	assert.Equal(t, "2026-08-22", repo.appended[0][0])
}
