// Package storetest runs the api.Store contract against an implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/paysms/pkg/api"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) api.Store

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func record(amount, merchant, category string, d int) api.Record {
	return api.Record{
		Amount:     decimal.RequireFromString(amount),
		Merchant:   merchant,
		Category:   category,
		OccurredAt: day(d),
		SourceText: "paid " + amount + " to " + merchant,
	}
}

// Run exercises every Store operation.
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertAssignsIncreasingIDs", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		first, err := s.Insert(ctx, record("10", "A", "Food", 1))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		second, err := s.Insert(ctx, record("20", "B", "Food", 2))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if first <= 0 || second <= first {
			t.Errorf("ids: got %d then %d, want positive and increasing", first, second)
		}
	})

	t.Run("GetByIDRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		want := record("1234.50", `Joe's "Diner"`, "Food", 3)
		want.Notes = "lunch"
		want.Reference = "991-A"
		id, err := s.Insert(ctx, want)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}

		got, err := s.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		want.ID = id
		assertEqual(t, got, want)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.GetByID(context.Background(), 999); !errors.Is(err, api.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("UpdateReplacesWholeRecord", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		orig := record("10", "A", "Food", 1)
		orig.Notes = "note"
		id, err := s.Insert(ctx, orig)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}

		next := record("15.75", "A2", "Travel", 4)
		next.ID = id
		if err := s.Update(ctx, next); err != nil {
			t.Fatalf("update: %v", err)
		}

		got, err := s.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		assertEqual(t, got, next)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newStore(t)
		r := record("10", "A", "Food", 1)
		r.ID = 999
		if err := s.Update(context.Background(), r); !errors.Is(err, api.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("DeleteByID", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		id, err := s.Insert(ctx, record("10", "A", "Food", 1))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := s.DeleteByID(ctx, id); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.GetByID(ctx, id); !errors.Is(err, api.ErrNotFound) {
			t.Errorf("get after delete: got %v, want ErrNotFound", err)
		}

		next, err := s.Insert(ctx, record("20", "B", "Food", 2))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if next == id {
			t.Errorf("id %d reused after delete", id)
		}
	})

	t.Run("ListOrderAndCategory", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		for _, r := range []api.Record{
			record("1", "old", "Food", 1),
			record("2", "newest", "Travel", 9),
			record("3", "middle", "Food", 5),
		} {
			if _, err := s.Insert(ctx, r); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}

		all, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("list all: %v", err)
		}
		assertMerchants(t, all, "newest", "middle", "old")

		food, err := s.ListByCategory(ctx, "Food")
		if err != nil {
			t.Fatalf("list by category: %v", err)
		}
		assertMerchants(t, food, "middle", "old")

		none, err := s.ListByCategory(ctx, "Nope")
		if err != nil {
			t.Fatalf("list by category: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("unknown category: got %d records, want 0", len(none))
		}
	})

	t.Run("DeleteAll", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		for i := 1; i <= 3; i++ {
			if _, err := s.Insert(ctx, record("1", "m", "Food", i)); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}
		if err := s.DeleteAll(ctx); err != nil {
			t.Fatalf("delete all: %v", err)
		}
		all, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("list all: %v", err)
		}
		if len(all) != 0 {
			t.Errorf("after delete all: got %d records, want 0", len(all))
		}
	})
}

func assertMerchants(t *testing.T, records []api.Record, want ...string) {
	t.Helper()
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, r := range records {
		if r.Merchant != want[i] {
			t.Errorf("record %d: got merchant %q, want %q", i, r.Merchant, want[i])
		}
	}
}

func assertEqual(t *testing.T, got, want api.Record) {
	t.Helper()
	if got.ID != want.ID {
		t.Errorf("id: got %d, want %d", got.ID, want.ID)
	}
	if !got.Amount.Equal(want.Amount) {
		t.Errorf("amount: got %v, want %v", got.Amount, want.Amount)
	}
	if got.Merchant != want.Merchant {
		t.Errorf("merchant: got %q, want %q", got.Merchant, want.Merchant)
	}
	if got.Category != want.Category {
		t.Errorf("category: got %q, want %q", got.Category, want.Category)
	}
	if got.Notes != want.Notes {
		t.Errorf("notes: got %q, want %q", got.Notes, want.Notes)
	}
	if !got.OccurredAt.Equal(want.OccurredAt) {
		t.Errorf("occurredAt: got %v, want %v", got.OccurredAt, want.OccurredAt)
	}
	if got.Reference != want.Reference {
		t.Errorf("reference: got %q, want %q", got.Reference, want.Reference)
	}
	if got.SourceText != want.SourceText {
		t.Errorf("sourceText: got %q, want %q", got.SourceText, want.SourceText)
	}
}
