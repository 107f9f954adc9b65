// Package daemon provides the message processing daemon for paysms.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ArionMiles/paysms/internal/plugins"
	"github.com/ArionMiles/paysms/pkg/api"
	"github.com/ArionMiles/paysms/pkg/config"
	"github.com/ArionMiles/paysms/pkg/extract"
	"github.com/ArionMiles/paysms/pkg/ingest"
	"github.com/ArionMiles/paysms/pkg/notify"
)

// messageBuffer is the capacity of the source-to-processor channel.
const messageBuffer = 100

// Runner manages the daemon lifecycle.
type Runner struct {
	registry   *plugins.Registry
	httpClient *http.Client
	notifier   api.Notifier
	logger     *slog.Logger
}

// New creates a new daemon runner. httpClient may be nil when the
// configured source needs no OAuth.
func New(registry *plugins.Registry, httpClient *http.Client, notifier api.Notifier, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		registry:   registry,
		httpClient: httpClient,
		notifier:   notifier,
		logger:     logger,
	}
}

// Run reads messages from the configured source and dispatches candidates
// until the source is exhausted or ctx is canceled. Cancellation is a clean
// shutdown, not an error.
func (r *Runner) Run(ctx context.Context, cfg config.Config) (ingest.Stats, error) {
	loc, err := cfg.Location()
	if err != nil {
		return ingest.Stats{}, err
	}

	r.logger.Info("starting paysms daemon",
		"source", cfg.Source,
		"timezone", loc.String(),
	)

	source, err := r.registry.CreateSource(
		ctx,
		cfg.Source,
		r.httpClient,
		cfg,
		r.logger.With("plugin", cfg.Source),
	)
	if err != nil {
		return ingest.Stats{}, fmt.Errorf("creating source: %w", err)
	}

	processor := ingest.NewProcessor(
		extract.NewBuilder(loc),
		notify.NewDispatcher(r.notifier, r.logger.With("component", "dispatcher")),
		r.logger,
	)

	messages := make(chan *api.Message, messageBuffer)

	sourceDone := make(chan error, 1)
	go func() {
		sourceDone <- source.Read(ctx, messages)
	}()

	r.logger.Info("daemon started")
	stats, procErr := processor.Run(ctx, messages)
	srcErr := <-sourceDone

	r.logger.Info("daemon stopped",
		"seen", stats.Seen,
		"dispatched", stats.Dispatched,
		"not_payment", stats.NotPayment,
		"no_amount", stats.NoAmount,
		"failed", stats.Failed,
	)

	if srcErr != nil && !errors.Is(srcErr, context.Canceled) {
		return stats, fmt.Errorf("reading source: %w", srcErr)
	}
	if procErr != nil && !errors.Is(procErr, context.Canceled) {
		return stats, fmt.Errorf("processing messages: %w", procErr)
	}
	return stats, nil
}
