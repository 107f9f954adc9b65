package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"

	gsheets "google.golang.org/api/sheets/v4"

	"github.com/ArionMiles/paysms/pkg/client"
	"github.com/ArionMiles/paysms/pkg/export"
	"github.com/ArionMiles/paysms/pkg/export/sheets"
)

// runExport writes every stored transaction to a CSV file or a Google Sheet.
func runExport(a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	to := fs.String("to", "csv", "export target: csv or sheets")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	switch *to {
	case "csv":
		writer := export.NewDirWriter(a.cfg.ExportDir, a.logger)
		exporter := export.NewExporter(store, writer, export.Config{Location: a.loc}, a.logger)

		name, count, err := exporter.Export(ctx)
		if errors.Is(err, export.ErrNothingToExport) {
			fmt.Println("No transactions to export.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d transactions to %s\n", count, filepath.Join(writer.Dir(), name))
		return nil

	case "sheets":
		records, err := store.ListAll(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No transactions to export.")
			return nil
		}

		httpClient, err := client.New(client.Config{SecretFile: a.cfg.SecretsFile}, gsheets.SpreadsheetsScope)
		if err != nil {
			return fmt.Errorf("creating http client: %w", err)
		}
		w, err := sheets.New(ctx, httpClient, sheets.Config{
			SheetTitle: a.cfg.Sheets.Title,
			SheetID:    a.cfg.Sheets.ID,
			SheetName:  a.cfg.Sheets.Name,
			Location:   a.loc,
		}, a.logger)
		if err != nil {
			return err
		}
		if err := w.Write(ctx, records); err != nil {
			return err
		}
		fmt.Printf("Exported %d transactions to spreadsheet %s\n", len(records), w.SpreadsheetID())
		return nil

	default:
		return fmt.Errorf("unknown -to %q", *to)
	}
}
