package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/ArionMiles/paysms/pkg/api"
	"github.com/ArionMiles/paysms/pkg/store/storetest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// TestNew_ConnectionFailure tests that the store returns an error when connection fails.
func TestNew_ConnectionFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := Config{
		Host:     "nonexistent-host.invalid",
		Port:     5432,
		Database: "paysms",
		User:     "paysms",
		Password: "password",
	}

	if _, err := New(ctx, cfg, quietLogger()); err == nil {
		t.Error("expected error when connecting to nonexistent host, got nil")
	}
}

func TestConfig_ConnString(t *testing.T) {
	cfg := Config{Host: "db", Port: 6543, Database: "ledger", User: "u", Password: "p", SSLMode: "require"}
	want := "host=db port=6543 user=u password=p dbname=ledger sslmode=require"
	if got := cfg.ConnString(); got != want {
		t.Errorf("conn string: got %q, want %q", got, want)
	}
}

// TestStoreContract runs against a throwaway PostgreSQL container.
func TestStoreContract(t *testing.T) {
	if os.Getenv("TEST_POSTGRES_CONTAINER") == "" {
		t.Skip("TEST_POSTGRES_CONTAINER not set, skipping integration test")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("paysms"),
		tcpostgres.WithUsername("paysms"),
		tcpostgres.WithPassword("paysms"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminating container: %v", err)
		}
	})

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	cfg := Config{
		Host:     host,
		Port:     port.Int(),
		Database: "paysms",
		User:     "paysms",
		Password: "paysms",
	}

	storetest.Run(t, func(t *testing.T) api.Store {
		s, err := New(ctx, cfg, quietLogger())
		if err != nil {
			t.Fatalf("creating store: %v", err)
		}
		if err := s.DeleteAll(ctx); err != nil {
			t.Fatalf("clearing table: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}
