// Package notify hands extracted candidates to the user for review.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ArionMiles/paysms/pkg/api"
)

// Dispatcher packages candidates as payloads and delivers them through a
// Notifier.
type Dispatcher struct {
	notifier api.Notifier
	logger   *slog.Logger
	newID    func() string
}

// NewDispatcher creates a dispatcher delivering through n.
func NewDispatcher(n api.Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		notifier: n,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// PayloadFrom builds the review hand-off payload for c.
func PayloadFrom(id string, c api.Candidate) api.Payload {
	return api.Payload{
		ID:         id,
		Amount:     c.Amount,
		Merchant:   c.Merchant,
		OccurredAt: c.OccurredAt.UnixMilli(),
		Reference:  c.Reference,
		SourceText: c.SourceText,
		Sender:     c.Sender,
	}
}

// Dispatch delivers c to the user. When delivery is not permitted the
// candidate is skipped and Dispatch returns nil.
func (d *Dispatcher) Dispatch(ctx context.Context, c api.Candidate) error {
	if !d.notifier.Permitted(ctx) {
		d.logger.Warn("notification permission not granted, skipping",
			"merchant", c.Merchant,
			"amount", c.Amount,
		)
		return nil
	}

	p := PayloadFrom(d.newID(), c)
	if err := d.notifier.Deliver(ctx, p); err != nil {
		return fmt.Errorf("delivering notification %s: %w", p.ID, err)
	}

	d.logger.Info("transaction notification delivered",
		"id", p.ID,
		"amount", p.Amount,
		"merchant", p.Merchant,
		"reference", p.Reference,
	)
	return nil
}

// ChannelNotifier hands payloads to an in-process review flow over a channel.
type ChannelNotifier struct {
	out     chan api.Payload
	allowed atomic.Bool
}

// NewChannelNotifier creates a permitted notifier with the given buffer size.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	n := &ChannelNotifier{out: make(chan api.Payload, buffer)}
	n.allowed.Store(true)
	return n
}

// Payloads returns the channel the review flow reads from.
func (n *ChannelNotifier) Payloads() <-chan api.Payload {
	return n.out
}

// SetPermitted toggles delivery permission.
func (n *ChannelNotifier) SetPermitted(ok bool) {
	n.allowed.Store(ok)
}

// Permitted reports whether delivery is allowed.
func (n *ChannelNotifier) Permitted(context.Context) bool {
	return n.allowed.Load()
}

// Deliver sends p, blocking until the reader takes it or ctx is done.
func (n *ChannelNotifier) Deliver(ctx context.Context, p api.Payload) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case n.out <- p:
		return nil
	}
}

// LogNotifier writes the notification text to a logger. It is always
// permitted and is useful when no review inbox is configured.
type LogNotifier struct {
	Logger *slog.Logger
	// Location is the zone dates are shown in; nil means UTC.
	Location *time.Location
}

// Permitted always reports true.
func (n LogNotifier) Permitted(context.Context) bool { return true }

// Deliver logs the notification.
func (n LogNotifier) Deliver(_ context.Context, p api.Payload) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("new transaction detected", "id", p.ID, "text", Text(p, n.Location))
	return nil
}

// Text renders the user-facing notification body for p with dates in loc.
func Text(p api.Payload, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	merchant := p.Merchant
	if merchant == "" {
		merchant = "N/A"
	}
	reference := p.Reference
	if reference == "" {
		reference = "N/A"
	}
	return fmt.Sprintf("Amount: %s, Merchant: %s on %s. Ref: %s. Tap to categorize.",
		p.Amount.StringFixed(2),
		merchant,
		p.OccurredTime().In(loc).Format("02 Jan 2006"),
		reference,
	)
}
