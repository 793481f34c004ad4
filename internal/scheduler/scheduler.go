package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"biostorex/internal/config"
	"biostorex/internal/service/reporting"
)

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	cfg          config.ReportingConfig
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.ReportingConfig, reportingSvc *reporting.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:         cron.New(),
		reportingSvc: reportingSvc,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the inventory report job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runInventoryReport); err != nil {
		s.logger.Error("failed to schedule inventory report", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runInventoryReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.reportingSvc.Generate(ctx)
	if err != nil {
		s.logger.Error("failed to generate inventory report", zap.Error(err))
		return
	}

	s.logger.Info("inventory report generated",
		zap.Int("lowStock", len(report.LowStock)),
		zap.Int("expiring", len(report.Expiring)))

	if err := s.reportingSvc.Export(ctx, report); err != nil {
		s.logger.Error("failed to export inventory report", zap.Error(err))
		return
	}

	s.logger.Info(s.reportingSvc.Summary(report))
}
