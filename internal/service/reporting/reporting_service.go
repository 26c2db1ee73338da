package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/caltrack/internal/domain/models"
)

const dateLayout = "2006-01-02"

// SummarySource builds the summary of a calendar day.
type SummarySource interface {
	Summary(ctx context.Context, date time.Time) (models.DailySummary, error)
}

// SummarySink stores exported summaries.
type SummarySink interface {
	SaveDailySummary(ctx context.Context, summary models.DailySummary) error
}

// Service produces daily summaries and pushes them to the configured sinks.
type Service struct {
	source SummarySource
	sinks  []SummarySink
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(source SummarySource, logger *zap.Logger, sinks ...SummarySink) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, sinks: sinks, logger: logger}
}

// DailySummary returns the summary for the calendar day containing date.
func (s *Service) DailySummary(ctx context.Context, date time.Time) (models.DailySummary, error) {
	summary, err := s.source.Summary(ctx, date)
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("build summary for %s: %w", date.Format(dateLayout), err)
	}
	return summary, nil
}

// ExportDay sends the day's summary to every sink. Without a profile there is nothing to export.
func (s *Service) ExportDay(ctx context.Context, date time.Time) error {
	if len(s.sinks) == 0 {
		s.logger.Debug("no summary sinks configured, skipping export")
		return nil
	}

	summary, err := s.DailySummary(ctx, date)
	if errors.Is(err, models.ErrProfileNotFound) {
		s.logger.Info("no profile stored, skipping export", zap.String("date", date.Format(dateLayout)))
		return nil
	}
	if err != nil {
		return err
	}

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.SaveDailySummary(ctx, summary); err != nil {
			s.logger.Error("summary export failed", zap.String("sink", fmt.Sprintf("%T", sink)), zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.logger.Info("daily summary exported",
		zap.String("date", summary.Date.Format(dateLayout)),
		zap.Int("calories", summary.Totals.Calories),
		zap.Int("sinks", len(s.sinks)),
	)
	return nil
}

// FormatSummary renders a one-line, human-readable summary.
func FormatSummary(summary models.DailySummary) string {
	day := summary.Date.Format(dateLayout)
	if summary.Entries == 0 {
		return fmt.Sprintf("Summary %s: no food logged (goal %d kcal).", day, summary.Goal)
	}

	status := fmt.Sprintf("%d kcal left", summary.RemainingKcal)
	if summary.RemainingKcal < 0 {
		status = fmt.Sprintf("%d kcal over", -summary.RemainingKcal)
	}

	return fmt.Sprintf("Summary %s: %d/%d kcal (%.1f%%), %s. Protein %.1fg, carbs %.1fg, fat %.1fg across %d entries.",
		day, summary.Totals.Calories, summary.Goal, summary.ConsumedPct, status,
		summary.Totals.Protein, summary.Totals.Carbs, summary.Totals.Fat, summary.Entries)
}
