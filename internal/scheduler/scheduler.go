package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/kasir/internal/domain/models"
)

// ReportGenerator produces the summary for one day of sales.
type ReportGenerator interface {
	GenerateDailyReport(ctx context.Context, day time.Time) (models.DailyReport, string, error)
}

// Notifier delivers a message to a WhatsApp recipient.
type Notifier interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Options configures the daily report job.
type Options struct {
	Schedule  string
	Location  *time.Location
	ManagerID string
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	reports   ReportGenerator
	notifier  Notifier
	managerID string
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance. The notifier may be nil, in
// which case reports are archived but not sent.
func NewScheduler(opts Options, reports ReportGenerator, notifier Notifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		schedule:  opts.Schedule,
		reports:   reports,
		notifier:  notifier,
		managerID: opts.ManagerID,
		now:       func() time.Time { return time.Now().In(loc) },
		logger:    logger,
	}
}

// Start registers the daily report and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sendDailyReport); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunDailyReport(ctx); err != nil {
		s.logger.Error("daily report failed", zap.Error(err))
	}
}

// RunDailyReport summarizes today's sales and sends the summary to the manager.
func (s *Scheduler) RunDailyReport(ctx context.Context) error {
	day := s.now()
	s.logger.Info("generating daily report", zap.String("day", day.Format("2006-01-02")))

	_, message, err := s.reports.GenerateDailyReport(ctx, day)
	if err != nil {
		return fmt.Errorf("generate daily report: %w", err)
	}

	if s.notifier == nil || s.managerID == "" {
		s.logger.Warn("no manager recipient configured, daily report not sent")
		return nil
	}

	req := models.OutboundMessageRequest{
		To:      s.managerID,
		Message: message,
	}
	if err := s.notifier.SendOutbound(ctx, req); err != nil {
		return fmt.Errorf("send daily report: %w", err)
	}

	s.logger.Info("daily report sent successfully")
	return nil
}
