// Package ingest runs incoming messages through the extraction engine and
// hands candidates to the notification dispatcher.
package ingest

import (
	"context"
	"log/slog"

	"github.com/ArionMiles/paysms/pkg/api"
	"github.com/ArionMiles/paysms/pkg/extract"
)

// Dispatcher delivers a candidate to the review flow.
type Dispatcher interface {
	Dispatch(ctx context.Context, c api.Candidate) error
}

// Stats counts what happened to each message.
type Stats struct {
	Seen       int
	NotPayment int
	NoAmount   int
	Dispatched int
	Failed     int
}

// Processor consumes messages until the input channel closes.
type Processor struct {
	builder    *extract.Builder
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(builder *extract.Builder, dispatcher Dispatcher, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if builder == nil {
		builder = &extract.Builder{}
	}
	return &Processor{
		builder:    builder,
		dispatcher: dispatcher,
		logger:     logger.With("component", "ingest"),
	}
}

// Run processes messages from in. It returns when in is closed or ctx is
// canceled. Dispatch failures are logged and counted, never returned.
func (p *Processor) Run(ctx context.Context, in <-chan *api.Message) (Stats, error) {
	var stats Stats
	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case msg, ok := <-in:
			if !ok {
				p.logger.Info("input closed", "stats", stats)
				return stats, nil
			}
			p.process(ctx, msg, &stats)
		}
	}
}

func (p *Processor) process(ctx context.Context, msg *api.Message, stats *Stats) {
	stats.Seen++

	candidate, outcome := p.builder.Explain(msg.Body, msg.Sender, msg.ReceivedAt)
	switch outcome {
	case extract.NotPayment:
		stats.NotPayment++
		p.logger.Debug("message dropped", "message_id", msg.ID, "gate", outcome.String())
		return
	case extract.NoAmount:
		stats.NoAmount++
		p.logger.Debug("message dropped", "message_id", msg.ID, "gate", outcome.String())
		return
	}

	if err := p.dispatcher.Dispatch(ctx, candidate); err != nil {
		stats.Failed++
		p.logger.Error("failed to dispatch candidate", "message_id", msg.ID, "error", err)
		return
	}
	stats.Dispatched++
}
