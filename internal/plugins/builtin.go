package plugins

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"google.golang.org/api/gmail/v1"

	"github.com/ArionMiles/paysms/pkg/api"
	"github.com/ArionMiles/paysms/pkg/config"
	gmailsource "github.com/ArionMiles/paysms/pkg/source/gmail"
	"github.com/ArionMiles/paysms/pkg/source/jsonl"
	"github.com/ArionMiles/paysms/pkg/source/mbox"
	"github.com/ArionMiles/paysms/pkg/store/jsonfile"
	"github.com/ArionMiles/paysms/pkg/store/memory"
	"github.com/ArionMiles/paysms/pkg/store/mongo"
	"github.com/ArionMiles/paysms/pkg/store/postgres"
)

// Builtin returns a registry holding every bundled source and store.
func Builtin() *Registry {
	r := NewRegistry()
	for _, p := range []SourcePlugin{JSONLSource{}, MboxSource{}, GmailSource{}} {
		// Names are distinct, registration cannot fail.
		_ = r.RegisterSource(p)
	}
	for _, p := range []StorePlugin{MemoryStore{}, JSONFileStore{}, PostgresStore{}, MongoStore{}} {
		_ = r.RegisterStore(p)
	}
	return r
}

// JSONLSource reads an SMS export with one JSON object per line.
type JSONLSource struct{}

func (JSONLSource) Name() string             { return config.SourceJSONL }
func (JSONLSource) Description() string      { return "Read SMS messages from a JSON Lines export" }
func (JSONLSource) RequiredScopes() []string { return nil }

func (JSONLSource) NewSource(_ context.Context, _ *http.Client, cfg config.Config, logger *slog.Logger) (api.Source, error) {
	return jsonl.New(jsonl.Config{Path: cfg.SourcePath}, logger)
}

// MboxSource reads alert e-mails from an mbox file.
type MboxSource struct{}

func (MboxSource) Name() string             { return config.SourceMbox }
func (MboxSource) Description() string      { return "Read bank alert e-mails from an mbox file" }
func (MboxSource) RequiredScopes() []string { return nil }

func (MboxSource) NewSource(_ context.Context, _ *http.Client, cfg config.Config, logger *slog.Logger) (api.Source, error) {
	return mbox.New(mbox.Config{Path: cfg.SourcePath}, logger)
}

// GmailSource polls a Gmail mailbox.
type GmailSource struct{}

func (GmailSource) Name() string        { return config.SourceGmail }
func (GmailSource) Description() string { return "Read bank alert e-mails from Gmail" }

// RequiredScopes includes modify so processed messages can be marked read.
func (GmailSource) RequiredScopes() []string {
	return []string{gmail.GmailReadonlyScope, gmail.GmailModifyScope}
}

func (GmailSource) NewSource(ctx context.Context, httpClient *http.Client, cfg config.Config, logger *slog.Logger) (api.Source, error) {
	if httpClient == nil {
		return nil, errors.New("gmail source requires an OAuth client, run 'paysms setup'")
	}
	return gmailsource.New(ctx, httpClient, gmailsource.Config{
		Query:    cfg.Gmail.Query,
		Interval: cfg.Gmail.Interval,
		MarkRead: cfg.Gmail.MarkRead,
	}, logger)
}

// MemoryStore keeps records in process memory.
type MemoryStore struct{}

func (MemoryStore) Name() string        { return config.StoreMemory }
func (MemoryStore) Description() string { return "Volatile in-memory store" }

func (MemoryStore) NewStore(context.Context, config.Config, *slog.Logger) (api.Store, error) {
	return memory.New(), nil
}

// JSONFileStore persists records in a single JSON file.
type JSONFileStore struct{}

func (JSONFileStore) Name() string        { return config.StoreJSONFile }
func (JSONFileStore) Description() string { return "Single JSON file rewritten after every change" }

func (JSONFileStore) NewStore(_ context.Context, cfg config.Config, logger *slog.Logger) (api.Store, error) {
	return jsonfile.New(jsonfile.Config{FilePath: cfg.DataFile}, logger)
}

// PostgresStore persists records in PostgreSQL.
type PostgresStore struct{}

func (PostgresStore) Name() string        { return config.StorePostgres }
func (PostgresStore) Description() string { return "PostgreSQL database" }

func (PostgresStore) NewStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (api.Store, error) {
	return postgres.New(ctx, postgres.Config{
		Host:        cfg.Postgres.Host,
		Port:        cfg.Postgres.Port,
		Database:    cfg.Postgres.Database,
		User:        cfg.Postgres.User,
		Password:    cfg.Postgres.Password,
		SSLMode:     cfg.Postgres.SSLMode,
		MaxPoolSize: cfg.Postgres.MaxPoolSize,
	}, logger)
}

// MongoStore persists records in MongoDB.
type MongoStore struct{}

func (MongoStore) Name() string        { return config.StoreMongo }
func (MongoStore) Description() string { return "MongoDB database" }

func (MongoStore) NewStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (api.Store, error) {
	return mongo.New(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database}, logger)
}
