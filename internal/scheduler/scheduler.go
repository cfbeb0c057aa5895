package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/incubator/internal/config"
	"github.com/mamadbah2/incubator/internal/domain/models"
	"github.com/mamadbah2/incubator/internal/service/reporting"
	"github.com/mamadbah2/incubator/internal/service/whatsapp"
)

const jobTimeout = 2 * time.Minute

// ReportingService is the reporting surface the daily job needs.
type ReportingService interface {
	DailyDigest(ctx context.Context, today time.Time) (reporting.Digest, error)
	SyncSheet(ctx context.Context) (int, error)
}

// Scheduler runs the daily incubation digest.
type Scheduler struct {
	cron         *cron.Cron
	cfg          config.ReminderConfig
	reportingSvc ReportingService
	messagingSvc whatsapp.MessagingService
	today        func() time.Time
	logger       *zap.Logger
}

// NewScheduler creates a scheduler whose cron runs in loc. messagingSvc may be
// nil, in which case the digest is only logged.
func NewScheduler(cfg config.ReminderConfig, loc *time.Location, reportingSvc ReportingService, messagingSvc whatsapp.MessagingService, today func() time.Time, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if today == nil {
		today = func() time.Time { return models.DateOf(time.Now().In(loc)) }
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		cfg:          cfg,
		reportingSvc: reportingSvc,
		messagingSvc: messagingSvc,
		today:        today,
		logger:       logger,
	}
}

// Start registers the daily job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runDaily); err != nil {
		return fmt.Errorf("schedule daily digest %q: %w", s.cfg.CronSchedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("daily digest failed", zap.Error(err))
	}
}

// RunOnce builds today's digest, sends it to the reminder recipient when a
// batch is due and exports new sessions to the sheet.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	digest, err := s.reportingSvc.DailyDigest(ctx, s.today())
	if err != nil {
		return fmt.Errorf("generate digest: %w", err)
	}

	s.logger.Info("daily digest generated",
		zap.Int("sessions", digest.Sessions),
		zap.Int("due_batches", digest.DueBatches))

	var errs []error
	if digest.DueBatches > 0 {
		if err := s.notify(ctx, digest.Text); err != nil {
			errs = append(errs, err)
		}
	}

	n, err := s.reportingSvc.SyncSheet(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("sync sheet: %w", err))
	} else if n > 0 {
		s.logger.Info("sessions exported to sheet", zap.Int("rows", n))
	}

	return errors.Join(errs...)
}

func (s *Scheduler) notify(ctx context.Context, text string) error {
	if s.messagingSvc == nil || s.cfg.Recipient == "" {
		s.logger.Info("insertion due today, no recipient configured", zap.String("digest", text))
		return nil
	}

	req := models.OutboundMessageRequest{To: s.cfg.Recipient, Message: text}
	if err := s.messagingSvc.SendOutbound(ctx, req); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	s.logger.Info("daily digest sent", zap.String("to", s.cfg.Recipient))
	return nil
}
