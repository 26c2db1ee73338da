package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Exporter pushes the summary of one calendar day to its sinks.
type Exporter interface {
	ExportDay(ctx context.Context, date time.Time) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	exporter Exporter
	schedule string
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewScheduler creates a scheduler that runs the nightly export on schedule, evaluated in loc.
func NewScheduler(schedule string, loc *time.Location, exporter Exporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	// Standard 5-field parser (min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		exporter: exporter,
		schedule: schedule,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// Start registers the export job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("timezone", s.loc.String()))

	if _, err := s.cron.AddFunc(s.schedule, s.exportPreviousDay); err != nil {
		return fmt.Errorf("schedule summary export %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running export to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) exportPreviousDay() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	day := s.now().In(s.loc).AddDate(0, 0, -1)
	s.logger.Info("exporting daily summary", zap.String("date", day.Format("2006-01-02")))

	if err := s.exporter.ExportDay(ctx, day); err != nil {
		s.logger.Error("failed to export daily summary", zap.Error(err))
	}
}
