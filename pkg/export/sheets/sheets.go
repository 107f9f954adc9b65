// Package sheets exports transactions to a Google Sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ArionMiles/paysms/pkg/api"
	"github.com/ArionMiles/paysms/pkg/export"
)

// DefaultRetryDelay is the wait between attempts after a 429 response.
const DefaultRetryDelay = 60 * time.Second

// Config holds configuration for the Sheets exporter.
type Config struct {
	// SheetTitle is the title for a new spreadsheet (if SheetID is empty).
	SheetTitle string
	// SheetID is the ID of an existing spreadsheet to use.
	SheetID string
	// SheetName is the name of the sheet within the spreadsheet.
	SheetName string
	// Location is used for the timestamp column. Defaults to UTC.
	Location *time.Location
	// RetryDelay defaults to DefaultRetryDelay.
	RetryDelay time.Duration
}

// Writer replaces the contents of a sheet with the stored transactions.
type Writer struct {
	client      *sheets.Service
	spreadsheet *sheets.Spreadsheet
	cfg         Config
	logger      *slog.Logger
}

// New creates a Writer, opening cfg.SheetID or creating a new spreadsheet.
func New(ctx context.Context, httpClient *http.Client, cfg Config, logger *slog.Logger, opts ...option.ClientOption) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Sheet1"
	}
	if cfg.SheetTitle == "" {
		cfg.SheetTitle = "paysms transactions"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	client, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	w := &Writer{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "sheets_export"),
	}

	spreadsheet, err := w.initSpreadsheet(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing spreadsheet: %w", err)
	}
	w.spreadsheet = spreadsheet

	return w, nil
}

func (w *Writer) initSpreadsheet(ctx context.Context) (*sheets.Spreadsheet, error) {
	if w.cfg.SheetID != "" {
		spreadsheet, err := w.client.Spreadsheets.Get(w.cfg.SheetID).Context(ctx).Do()
		if err == nil {
			w.logger.Info("using existing spreadsheet", "id", w.cfg.SheetID)
			return spreadsheet, nil
		}
		w.logger.Warn("failed to get spreadsheet, will create new one", "id", w.cfg.SheetID, "error", err)
	}

	spreadsheet, err := w.client.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title: w.cfg.SheetTitle,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet", "title", w.cfg.SheetTitle, "id", spreadsheet.SpreadsheetId)
	return spreadsheet, nil
}

// Rows converts records into sheet rows, header first.
func Rows(records []api.Record, loc *time.Location) [][]any {
	if loc == nil {
		loc = time.UTC
	}
	values := make([][]any, 0, len(records)+1)
	values = append(values, []any{"ID", "Amount", "Merchant Name", "Category", "Notes", "Timestamp", "Original SMS"})
	for _, r := range records {
		values = append(values, []any{
			r.ID,
			r.Amount.StringFixed(2),
			r.Merchant,
			r.Category,
			r.Notes,
			r.OccurredAt.In(loc).Format("2006-01-02"),
			r.SourceText,
		})
	}
	return values
}

// Write clears the sheet and writes the header followed by records.
func (w *Writer) Write(ctx context.Context, records []api.Record) error {
	if len(records) == 0 {
		return export.ErrNothingToExport
	}

	id := w.spreadsheet.SpreadsheetId
	sheetRange := w.cfg.SheetName

	err := w.withRetry(func() error {
		_, err := w.client.Spreadsheets.Values.Clear(id, sheetRange, &sheets.ClearValuesRequest{}).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("clearing sheet: %w", err)
	}

	writeReq := sheets.ValueRange{Values: Rows(records, w.cfg.Location)}
	err = w.withRetry(func() error {
		_, err := w.client.Spreadsheets.Values.Update(id, sheetRange+"!A1", &writeReq).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("writing rows to sheet: %w", err)
	}

	w.logger.Info("exported transactions to sheet", "spreadsheet_id", id, "count", len(records))
	return nil
}

func (w *Writer) withRetry(fn func() error) error {
	return retry.Do(
		fn,
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
				w.logger.Warn("rate limited, will retry", "error", err)
				return true
			}
			return false
		}),
		retry.Attempts(3),
		retry.Delay(w.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

// SpreadsheetID returns the ID of the spreadsheet being written to.
func (w *Writer) SpreadsheetID() string {
	if w.spreadsheet == nil {
		return ""
	}
	return w.spreadsheet.SpreadsheetId
}
