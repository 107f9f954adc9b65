package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArionMiles/paysms/internal/daemon"
	"github.com/ArionMiles/paysms/pkg/api"
	"github.com/ArionMiles/paysms/pkg/client"
	"github.com/ArionMiles/paysms/pkg/notify"
)

// runDaemon reads the configured source until it is exhausted or a signal
// arrives.
func runDaemon(a *app, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	mode := fs.String("notify", "inbox", "where candidates go: inbox or log")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if a.cfg.NeedsSourcePath() && a.cfg.SourcePath == "" {
		return fmt.Errorf("PAYSMS_SOURCE_PATH is required for the %s source", a.cfg.Source)
	}

	var notifier api.Notifier
	switch *mode {
	case "inbox":
		box, err := a.openInbox()
		if err != nil {
			return err
		}
		notifier = box
	case "log":
		notifier = notify.LogNotifier{Logger: a.logger.With("component", "notifier"), Location: a.loc}
	default:
		return fmt.Errorf("unknown -notify %q", *mode)
	}

	scopes, err := a.registry.Scopes(a.cfg.Source)
	if err != nil {
		return err
	}

	var httpClient *http.Client
	if len(scopes) > 0 {
		httpClient, err = client.New(client.Config{SecretFile: a.cfg.SecretsFile}, scopes...)
		if err != nil {
			return fmt.Errorf("creating http client: %w", err)
		}
	}

	// Setup context with cancellation on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			a.logger.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	stats, err := daemon.New(a.registry, httpClient, notifier, a.logger).Run(ctx, a.cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d messages: %d queued for review, %d not payments, %d without amount, %d failed.\n",
		stats.Seen, stats.Dispatched, stats.NotPayment, stats.NoAmount, stats.Failed)
	return nil
}
