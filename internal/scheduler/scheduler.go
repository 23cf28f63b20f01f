// Package scheduler runs the nightly snapshot: aggregate the finished day's
// shifts, store the summary locally and mirror a row into the Reports sheet.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bfall/sawshift/internal/config"
	"github.com/bfall/sawshift/internal/repository/mongodb"
	"github.com/bfall/sawshift/internal/service/reporting"
)

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	store        mongodb.Repository
	cfg          config.ReportingConfig
	location     *time.Location
	logger       *zap.Logger
	now          func() time.Time
}

// NewScheduler creates a new scheduler instance. The cron expression and
// timezone come from configuration.
func NewScheduler(cfg config.ReportingConfig, reportingSvc *reporting.Service, store mongodb.Repository, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to local", zap.String("timezone", cfg.Timezone), zap.Error(err))
		location = time.Local
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(location)),
		reportingSvc: reportingSvc,
		store:        store,
		cfg:          cfg,
		location:     location,
		logger:       logger,
		now:          time.Now,
	}
}

// Start registers the daily snapshot job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.storeDailySnapshot); err != nil {
		s.logger.Error("failed to schedule daily snapshot", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) storeDailySnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// The job fires after midnight; the finished day is yesterday in the
	// configured timezone.
	day := s.now().In(s.location).AddDate(0, 0, -1)

	summary, err := s.reportingSvc.BuildDailySummary(ctx, day)
	if err != nil {
		s.logger.Error("failed to build daily summary", zap.Error(err))
		return
	}

	if s.store != nil {
		if err := s.store.SaveDailySummary(ctx, summary); err != nil {
			s.logger.Error("failed to store daily summary", zap.Error(err))
		}
	}

	if err := s.reportingSvc.AppendReportRow(ctx, summary); err != nil {
		s.logger.Error("failed to append report row", zap.Error(err))
		return
	}

	s.logger.Info("daily snapshot stored",
		zap.Int("shift_count", summary.ShiftCount),
		zap.Float64("total_earnings", summary.TotalEarnings))
}
