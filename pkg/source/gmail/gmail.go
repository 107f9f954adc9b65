// Package gmail implements a Source that reads payment alerts from Gmail.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/ArionMiles/paysms/pkg/api"
)

// DefaultQuery selects unread bank alerts.
const DefaultQuery = "is:unread (debited OR paid OR spent)"

// Source reads messages matching a Gmail search query.
type Source struct {
	client   *gmail.Service
	query    string
	interval time.Duration
	markRead bool
	logger   *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// Config holds configuration for the Gmail source.
type Config struct {
	// Query is a Gmail search query. Defaults to DefaultQuery.
	Query string
	// Interval between polls. Zero reads once and returns.
	Interval time.Duration
	// MarkRead removes the UNREAD label once a message has been handed off.
	MarkRead bool
}

// New creates a new Gmail source.
func New(ctx context.Context, httpClient *http.Client, cfg Config, logger *slog.Logger, opts ...option.ClientOption) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	client, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}

	query := cfg.Query
	if query == "" {
		query = DefaultQuery
	}

	return &Source{
		client:   client,
		query:    query,
		interval: cfg.Interval,
		markRead: cfg.MarkRead,
		logger:   logger.With("component", "gmail_source"),
		seen:     make(map[string]struct{}),
	}, nil
}

// Read lists matching messages and sends them to out. With a polling
// interval it runs until ctx is canceled; otherwise it returns after one pass.
func (s *Source) Read(ctx context.Context, out chan<- *api.Message) error {
	defer close(out)

	if err := s.poll(ctx, out); err != nil {
		return err
	}
	if s.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("gmail source stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := s.poll(ctx, out); err != nil {
				return err
			}
		}
	}
}

func (s *Source) poll(ctx context.Context, out chan<- *api.Message) error {
	var ids []string
	err := s.client.Users.Messages.List("me").Q(s.query).Pages(ctx, func(resp *gmail.ListMessagesResponse) error {
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Error("failed to list messages", "error", err)
		return nil
	}

	s.logger.Info("found messages", "count", len(ids))

	for _, id := range ids {
		if s.alreadySeen(id) {
			continue
		}
		if err := s.processMessage(ctx, id, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("failed to process message", "message_id", id, "error", err)
		}
	}
	return nil
}

func (s *Source) alreadySeen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = struct{}{}
	return false
}

func (s *Source) processMessage(ctx context.Context, id string, out chan<- *api.Message) error {
	msg, err := s.client.Users.Messages.Get("me", id).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("getting message: %w", err)
	}

	body := extractBody(msg.Payload)
	if body == "" {
		s.logger.Warn("empty message body", "message_id", id)
		return nil
	}

	m := &api.Message{
		ID:         id,
		Body:       body,
		Sender:     header(msg.Payload, "From"),
		ReceivedAt: time.UnixMilli(msg.InternalDate),
	}
	if addr, err := mail.ParseAddress(m.Sender); err == nil {
		m.Sender = addr.Address
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case out <- m:
	}

	if s.markRead {
		s.markAsRead(ctx, id)
	}
	return nil
}

// markAsRead marks a message as read in Gmail.
func (s *Source) markAsRead(ctx context.Context, id string) {
	_, err := s.client.Users.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		s.logger.Warn("failed to mark message as read", "message_id", id, "error", err)
	} else {
		s.logger.Debug("marked message as read", "message_id", id)
	}
}

func header(p *gmail.MessagePart, name string) string {
	if p == nil {
		return ""
	}
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// extractBody prefers a text/plain part, then text/html, then the top-level
// body data.
func extractBody(p *gmail.MessagePart) string {
	if p == nil {
		return ""
	}
	if text := findPart(p, "text/plain"); text != "" {
		return text
	}
	if html := findPart(p, "text/html"); html != "" {
		return html
	}
	return decodeData(p.Body)
}

func findPart(p *gmail.MessagePart, mimeType string) string {
	if p.MimeType == mimeType {
		if text := decodeData(p.Body); text != "" {
			return text
		}
	}
	for _, part := range p.Parts {
		if text := findPart(part, mimeType); text != "" {
			return text
		}
	}
	return ""
}

func decodeData(b *gmail.MessagePartBody) string {
	if b == nil || b.Data == "" {
		return ""
	}
	data, err := base64.URLEncoding.DecodeString(b.Data)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(b.Data)
		if err != nil {
			return ""
		}
	}
	return strings.TrimSpace(string(data))
}
