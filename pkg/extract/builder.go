package extract

import (
	"time"

	"github.com/ArionMiles/paysms/pkg/api"
)

// Outcome tells which gate, if any, dropped a message.
type Outcome int

const (
	// Classified means a candidate was produced.
	Classified Outcome = iota
	// NotPayment means no payment keyword was found.
	NotPayment
	// NoAmount means the message looked like a payment but had no amount.
	NoAmount
)

func (o Outcome) String() string {
	switch o {
	case Classified:
		return "classified"
	case NotPayment:
		return "not_payment"
	case NoAmount:
		return "no_amount"
	default:
		return "unknown"
	}
}

// Builder composes the classifier and field extractors into candidates.
// The zero value is ready to use and resolves dates in UTC.
type Builder struct {
	// Location is the zone in which message dates are interpreted.
	Location *time.Location
}

// NewBuilder returns a Builder interpreting dates in loc.
func NewBuilder(loc *time.Location) *Builder {
	return &Builder{Location: loc}
}

// timeResolver yields a time or reports that it has none.
type timeResolver func() (time.Time, bool)

func resolveTime(chain []timeResolver) time.Time {
	for _, r := range chain {
		if t, ok := r(); ok {
			return t
		}
	}
	return time.Time{}
}

// Build returns the candidate for text, or false when the message is not a
// payment or carries no amount.
func (b *Builder) Build(text, sender string, receivedAt time.Time) (api.Candidate, bool) {
	c, outcome := b.Explain(text, sender, receivedAt)
	return c, outcome == Classified
}

// Explain is Build with the reason a message was dropped.
func (b *Builder) Explain(text, sender string, receivedAt time.Time) (api.Candidate, Outcome) {
	if !IsPaymentEvent(text) {
		return api.Candidate{}, NotPayment
	}

	amount, ok := ExtractAmount(text)
	if !ok {
		return api.Candidate{}, NoAmount
	}

	occurredAt := resolveTime([]timeResolver{
		func() (time.Time, bool) { return ExtractTransactionDate(text, b.Location) },
		func() (time.Time, bool) { return receivedAt, true },
	})
	reference, _ := ExtractReferenceNumber(text)

	return api.Candidate{
		Amount:     amount,
		Merchant:   ExtractMerchant(text, sender),
		OccurredAt: occurredAt,
		Reference:  reference,
		SourceText: text,
		Sender:     sender,
	}, Classified
}
