package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfall/sawshift/internal/config"
	"github.com/bfall/sawshift/internal/domain/models"
	"github.com/bfall/sawshift/internal/service/reporting"
)

type fakeSheetRepo struct {
	rows     [][]interface{}
	appended [][]interface{}
}

func (f *fakeSheetRepo) AppendRow(ctx context.Context, sheetRange string, values []interface{}) error {
	f.appended = append(f.appended, values)
	return nil
}

func (f *fakeSheetRepo) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	return f.rows, nil
}

type fakeStore struct {
	summaries []models.DailySummary
}

func (f *fakeStore) Upsert(ctx context.Context, entry models.HistoryEntry) error { return nil }
func (f *fakeStore) MarkDeleted(ctx context.Context, boardID string) error       { return nil }
func (f *fakeStore) Get(ctx context.Context, boardID string) (models.HistoryEntry, error) {
	return models.HistoryEntry{}, nil
}
func (f *fakeStore) List(ctx context.Context, from, to time.Time) ([]models.HistoryEntry, error) {
	return nil, nil
}
func (f *fakeStore) SaveDailySummary(ctx context.Context, summary models.DailySummary) error {
	f.summaries = append(f.summaries, summary)
	return nil
}
func (f *fakeStore) Close(ctx context.Context) error { return nil }

func shiftRow(date, earnings, yieldPercent string) []interface{} {
	return []interface{}{date, "board-x", "batch-7", "2000x150x50", earnings, yieldPercent, "2", "0.015", "0.00384", "active"}
}

// The snapshot job runs just after midnight and must aggregate the day that
// just ended, not the day the job fires on.
func TestDailySnapshotAggregatesPreviousDay(t *testing.T) {
	sheetRepo := &fakeSheetRepo{rows: [][]interface{}{
		shiftRow("2026-08-22", "300", "26"),
		shiftRow("2026-08-22", "150", "40"),
		shiftRow("2026-08-23", "999", "90"), // today, out of the snapshot window
	}}
	store := &fakeStore{}

	cfg := config.ReportingConfig{CronSchedule: "10 0 * * *", Timezone: "UTC"}
	sched := NewScheduler(cfg, reporting.NewService(sheetRepo, nil), store, nil)
	sched.now = func() time.Time { return time.Date(2026, 8, 23, 0, 10, 0, 0, time.UTC) }

	sched.storeDailySnapshot()

	require.Len(t, store.summaries, 1)
	summary := store.summaries[0]
	assert.Equal(t, time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC), summary.Date)
	assert.Equal(t, 2, summary.ShiftCount)
	assert.InDelta(t, 450, summary.TotalEarnings, 1e-9)

	require.Len(t, sheetRepo.appended, 1)
	assert.Equal(t, "2026-08-22", sheetRepo.appended[0][0])
}

func TestSchedulerUnknownTimezoneFallsBack(t *testing.T) {
	cfg := config.ReportingConfig{CronSchedule: "10 0 * * *", Timezone: "Not/AZone"}
	sched := NewScheduler(cfg, reporting.NewService(&fakeSheetRepo{}, nil), &fakeStore{}, nil)
	assert.Equal(t, time.Local, sched.location)
}
