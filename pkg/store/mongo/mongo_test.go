package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/paysms/pkg/api"
	"github.com/ArionMiles/paysms/pkg/store/storetest"
)

func TestNew_MissingURI(t *testing.T) {
	if _, err := New(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected error for empty URI")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	want := api.Record{
		ID:         7,
		Amount:     decimal.RequireFromString("1234.56"),
		Merchant:   "Cafe",
		Category:   "Food",
		OccurredAt: time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
		Reference:  "42",
		SourceText: "paid",
	}

	doc, err := toDocument(want)
	if err != nil {
		t.Fatalf("toDocument: %v", err)
	}
	if got := doc.Amount.String(); got != "1234.56" {
		t.Errorf("decimal128: got %s, want 1234.56", got)
	}

	got, err := doc.record()
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !got.Amount.Equal(want.Amount) || got.Merchant != want.Merchant || !got.OccurredAt.Equal(want.OccurredAt) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestStoreContract(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("Skipping integration test: TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	cfg := Config{URI: uri, Database: fmt.Sprintf("paysms_test_%d", time.Now().UnixNano())}

	s, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		_ = s.client.Database(cfg.Database).Drop(context.Background())
		_ = s.Close()
	})

	storetest.Run(t, func(t *testing.T) api.Store {
		if err := s.DeleteAll(ctx); err != nil {
			t.Fatalf("DeleteAll: %v", err)
		}
		return s
	})
}
