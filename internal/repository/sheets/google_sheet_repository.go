package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/caltrack/internal/config"
	"github.com/mamadbah2/caltrack/internal/domain/models"
)

const (
	summaryRange     = "Summary!A:G"
	summaryDateRange = "Summary!A:A"
	dateLayout       = "2006-01-02"
)

// Repository defines the raw spreadsheet operations the exporter needs.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}

// SummaryExporter appends one row per day to the Summary tab, skipping days already present.
type SummaryExporter struct {
	repo Repository
}

// NewSummaryExporter wraps a sheet repository.
func NewSummaryExporter(repo Repository) *SummaryExporter {
	return &SummaryExporter{repo: repo}
}

// SaveDailySummary writes date, goal, calories, protein, carbs, fat and entry count.
func (e *SummaryExporter) SaveDailySummary(ctx context.Context, summary models.DailySummary) error {
	day := summary.Date.Format(dateLayout)

	rows, err := e.repo.ReadRange(ctx, summaryDateRange)
	if err != nil {
		return fmt.Errorf("load exported days: %w", err)
	}
	for _, row := range rows {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == day {
			return nil
		}
	}

	return e.repo.WriteRow(ctx, summaryRange, []interface{}{
		day,
		summary.Goal,
		summary.Totals.Calories,
		summary.Totals.Protein,
		summary.Totals.Carbs,
		summary.Totals.Fat,
		summary.Entries,
	})
}
