// Package api defines the core interfaces and data structures for paysms.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by a Store when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// Message is a raw payment alert as received from a source.
type Message struct {
	// ID is the source-specific message id (Gmail id, mbox Message-Id, ...).
	ID         string
	Body       string
	Sender     string
	ReceivedAt time.Time
}

// Candidate is an extracted but unreviewed transaction guess.
type Candidate struct {
	Amount     decimal.Decimal
	Merchant   string
	OccurredAt time.Time
	// Reference is empty when the message carries no reference number.
	Reference  string
	SourceText string
	// Sender is the originating address of the message, kept for display.
	Sender string
}

// Payload is the flat hand-off structure passed from the dispatcher to the
// review flow.
type Payload struct {
	ID         string          `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Merchant   string          `json:"merchant,omitempty"`
	OccurredAt int64           `json:"occurredAt"`
	Reference  string          `json:"reference,omitempty"`
	SourceText string          `json:"sourceText"`
	Sender     string          `json:"sender,omitempty"`
}

// MarshalJSON renders Amount as a JSON number rather than a string.
func (p Payload) MarshalJSON() ([]byte, error) {
	type payload Payload
	return json.Marshal(struct {
		payload
		Amount json.Number `json:"amount"`
	}{payload(p), json.Number(p.Amount.String())})
}

// OccurredTime returns OccurredAt as a time.Time.
func (p Payload) OccurredTime() time.Time {
	return time.UnixMilli(p.OccurredAt)
}

// Record is a persisted, user-confirmed transaction.
type Record struct {
	// ID is assigned by the store on insert. Zero means "not stored yet".
	ID         int64           `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Merchant   string          `json:"merchant_name"`
	Category   string          `json:"category"`
	Notes      string          `json:"notes,omitempty"`
	OccurredAt time.Time       `json:"timestamp"`
	Reference  string          `json:"reference_number,omitempty"`
	SourceText string          `json:"original_sms,omitempty"`
}

// Store persists transaction records keyed by a store-assigned numeric id.
// Listings are ordered by OccurredAt descending.
type Store interface {
	Insert(ctx context.Context, r Record) (int64, error)
	// Update replaces the whole record with the same id.
	Update(ctx context.Context, r Record) error
	DeleteByID(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (Record, error)
	ListAll(ctx context.Context) ([]Record, error)
	ListByCategory(ctx context.Context, category string) ([]Record, error)
	DeleteAll(ctx context.Context) error
	Close() error
}

// Source reads messages and sends them to the provided channel.
// Implementations close the channel when done or on error.
type Source interface {
	Read(ctx context.Context, out chan<- *Message) error
}

// Notifier surfaces a payload to the user for review.
type Notifier interface {
	// Permitted reports whether user-facing delivery is currently allowed.
	Permitted(ctx context.Context) bool
	Deliver(ctx context.Context, p Payload) error
}

// FileWriter writes a named text file to a downloads-like location.
type FileWriter interface {
	WriteNamedTextFile(ctx context.Context, name, content string) error
}
