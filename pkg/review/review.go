// Package review turns candidates and existing records into editable drafts
// and writes confirmed drafts to the record store.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/paysms/pkg/api"
)

// DefaultCategories is the suggestion list offered when none is configured.
var DefaultCategories = []string{
	"Food", "Travel", "Shopping", "Bills", "Entertainment", "Health",
	"Education", "Groceries", "Salary", "Freelance", "Other",
}

// ErrSaveFailed wraps any store failure during Save or Delete.
var ErrSaveFailed = errors.New("saving transaction failed")

// ValidationError reports a draft field that cannot be saved.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Draft is the editable form state of a transaction. ID 0 means new.
type Draft struct {
	ID         int64
	Amount     decimal.Decimal
	Merchant   string
	Category   string
	Notes      string
	OccurredAt time.Time
	Reference  string
	SourceText string
}

// DraftFromPayload pre-fills a new draft from a notification payload.
// Category is left for the user.
func DraftFromPayload(p api.Payload) Draft {
	return Draft{
		Amount:     p.Amount,
		Merchant:   p.Merchant,
		OccurredAt: p.OccurredTime(),
		Reference:  p.Reference,
		SourceText: p.SourceText,
	}
}

// DraftFromRecord returns a draft for editing r.
func DraftFromRecord(r api.Record) Draft {
	return Draft{
		ID:         r.ID,
		Amount:     r.Amount,
		Merchant:   r.Merchant,
		Category:   r.Category,
		Notes:      r.Notes,
		OccurredAt: r.OccurredAt,
		Reference:  r.Reference,
		SourceText: r.SourceText,
	}
}

// Validate checks the fields a record requires.
func (d Draft) Validate() error {
	if !d.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if strings.TrimSpace(d.Merchant) == "" {
		return &ValidationError{Field: "merchant", Reason: "cannot be empty"}
	}
	if strings.TrimSpace(d.Category) == "" {
		return &ValidationError{Field: "category", Reason: "cannot be empty"}
	}
	return nil
}

// Config holds review settings.
type Config struct {
	// Categories overrides DefaultCategories when non-empty.
	Categories []string
	// Now stamps drafts without a date. Defaults to time.Now.
	Now func() time.Time
}

// Service applies drafts to a store.
type Service struct {
	store      api.Store
	categories []string
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a Service over store.
func NewService(store api.Store, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	categories := cfg.Categories
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:      store,
		categories: categories,
		now:        now,
		logger:     logger.With("component", "review"),
	}
}

// Categories returns the category suggestions. Any other text is accepted.
func (s *Service) Categories() []string {
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// Load returns a draft for the stored record with id.
func (s *Service) Load(ctx context.Context, id int64) (Draft, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Draft{}, fmt.Errorf("loading transaction %d: %w", id, err)
	}
	return DraftFromRecord(r), nil
}

// Save validates d and inserts it (ID 0) or replaces the stored record.
// Edits keep the stored source text and reference.
func (s *Service) Save(ctx context.Context, d Draft) (api.Record, error) {
	if err := d.Validate(); err != nil {
		return api.Record{}, err
	}

	r := api.Record{
		ID:         d.ID,
		Amount:     d.Amount,
		Merchant:   strings.TrimSpace(d.Merchant),
		Category:   strings.TrimSpace(d.Category),
		Notes:      strings.TrimSpace(d.Notes),
		OccurredAt: d.OccurredAt,
		Reference:  d.Reference,
		SourceText: d.SourceText,
	}
	if r.OccurredAt.IsZero() {
		r.OccurredAt = s.now()
	}

	if r.ID == 0 {
		id, err := s.store.Insert(ctx, r)
		if err != nil {
			return api.Record{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
		}
		r.ID = id
		s.logger.Info("transaction saved", "id", id, "merchant", r.Merchant, "amount", r.Amount.String())
		return r, nil
	}

	existing, err := s.store.GetByID(ctx, r.ID)
	if err != nil {
		return api.Record{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	r.SourceText = existing.SourceText
	r.Reference = existing.Reference

	if err := s.store.Update(ctx, r); err != nil {
		return api.Record{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	s.logger.Info("transaction updated", "id", r.ID, "merchant", r.Merchant)
	return r, nil
}

// Delete removes the record with id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	s.logger.Info("transaction deleted", "id", id)
	return nil
}
