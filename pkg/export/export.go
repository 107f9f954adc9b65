// Package export renders stored transactions as CSV and hands the text to a
// FileWriter.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ArionMiles/paysms/pkg/api"
)

// Header is the first line of every export.
const Header = "ID,Amount,Merchant Name,Category,Notes,Timestamp,Original SMS"

const (
	fileNameLayout  = "20060102_150405"
	timestampLayout = "2006-01-02"
)

// ErrNothingToExport is returned when the store holds no records.
var ErrNothingToExport = errors.New("no transactions to export")

// RenderCSV renders records under Header, one per line, without a trailing
// newline. Text fields are always quoted. Timestamps are dates in loc.
func RenderCSV(records []api.Record, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	for i, r := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.FormatInt(r.ID, 10))
		b.WriteByte(',')
		b.WriteString(r.Amount.StringFixed(2))
		b.WriteByte(',')
		b.WriteString(quote(r.Merchant))
		b.WriteByte(',')
		b.WriteString(quote(r.Category))
		b.WriteByte(',')
		b.WriteString(quote(r.Notes))
		b.WriteByte(',')
		b.WriteString(r.OccurredAt.In(loc).Format(timestampLayout))
		b.WriteByte(',')
		b.WriteString(quote(r.SourceText))
	}
	return b.String()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FileName returns the export file name for t.
func FileName(t time.Time) string {
	return "transactions_export_" + t.Format(fileNameLayout) + ".csv"
}

// Exporter writes every stored record to a FileWriter.
type Exporter struct {
	store    api.Store
	writer   api.FileWriter
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// Config holds exporter settings.
type Config struct {
	// Location is used for the timestamp column and the file name.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewExporter creates an Exporter.
func NewExporter(store api.Store, writer api.FileWriter, cfg Config, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Exporter{
		store:    store,
		writer:   writer,
		location: cfg.Location,
		now:      cfg.Now,
		logger:   logger.With("component", "export"),
	}
}

// Export writes all records and returns the file name and record count.
func (e *Exporter) Export(ctx context.Context) (string, int, error) {
	records, err := e.store.ListAll(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("listing transactions: %w", err)
	}
	if len(records) == 0 {
		e.logger.Info("no transactions to export")
		return "", 0, ErrNothingToExport
	}

	name := FileName(e.now().In(e.location))
	if err := e.writer.WriteNamedTextFile(ctx, name, RenderCSV(records, e.location)); err != nil {
		return "", 0, fmt.Errorf("writing %s: %w", name, err)
	}

	e.logger.Info("exported transactions", "file", name, "count", len(records))
	return name, len(records), nil
}
