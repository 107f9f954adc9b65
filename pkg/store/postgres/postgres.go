// Package postgres provides a PostgreSQL record store.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ArionMiles/paysms/pkg/api"
)

//go:embed 001_create_transactions.sql
var migrationSQL string

const selectColumns = `id, amount::text, merchant_name, category, notes, occurred_at, reference_number, original_sms`

// Config holds the PostgreSQL store configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
}

// ConnString renders cfg as a libpq keyword/value connection string.
func (cfg Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)
}

// Store persists records in a PostgreSQL database.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New connects to PostgreSQL and runs migrations.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Set defaults
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 4
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database,
	)

	s := &Store{pool: pool, logger: logger}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	s.logger.Info("running database migrations")
	if _, err := s.pool.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	s.logger.Info("migrations completed successfully")
	return nil
}

// Insert stores r and returns the id assigned by the database.
func (s *Store) Insert(ctx context.Context, r api.Record) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO transactions (
			amount, merchant_name, category, notes, occurred_at, reference_number, original_sms
		) VALUES ($1::numeric, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		r.Amount.String(), r.Merchant, r.Category, r.Notes, r.OccurredAt, r.Reference, r.SourceText,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting transaction: %w", err)
	}

	s.logger.Debug("inserted transaction", "id", id, "merchant", r.Merchant)
	return id, nil
}

// Update replaces every column of the record with r.ID.
func (s *Store) Update(ctx context.Context, r api.Record) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE transactions SET
			amount = $2::numeric,
			merchant_name = $3,
			category = $4,
			notes = $5,
			occurred_at = $6,
			reference_number = $7,
			original_sms = $8,
			updated_at = NOW()
		WHERE id = $1
	`,
		r.ID, r.Amount.String(), r.Merchant, r.Category, r.Notes, r.OccurredAt, r.Reference, r.SourceText,
	)
	if err != nil {
		return fmt.Errorf("updating transaction %d: %w", r.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating transaction %d: %w", r.ID, api.ErrNotFound)
	}
	return nil
}

// DeleteByID removes the record with id.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting transaction %d: %w", id, err)
	}
	return nil
}

// GetByID returns the record with id.
func (s *Store) GetByID(ctx context.Context, id int64) (api.Record, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM transactions WHERE id = $1`, id)

	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return api.Record{}, fmt.Errorf("getting transaction %d: %w", id, api.ErrNotFound)
		}
		return api.Record{}, fmt.Errorf("getting transaction %d: %w", id, err)
	}
	return r, nil
}

// ListAll returns every record, most recent first.
func (s *Store) ListAll(ctx context.Context) ([]api.Record, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM transactions ORDER BY occurred_at DESC, id DESC`)
}

// ListByCategory returns records in category, most recent first.
func (s *Store) ListByCategory(ctx context.Context, category string) ([]api.Record, error) {
	return s.query(ctx,
		`SELECT `+selectColumns+` FROM transactions WHERE category = $1 ORDER BY occurred_at DESC, id DESC`,
		category,
	)
}

// DeleteAll removes every record.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("deleting transactions: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("closed PostgreSQL connection pool")
	}
	return nil
}

func (s *Store) query(ctx context.Context, sql string, args ...any) ([]api.Record, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var records []api.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (api.Record, error) {
	var (
		r      api.Record
		amount string
	)
	if err := row.Scan(&r.ID, &amount, &r.Merchant, &r.Category, &r.Notes, &r.OccurredAt, &r.Reference, &r.SourceText); err != nil {
		return api.Record{}, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return api.Record{}, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	r.Amount = parsed
	return r, nil
}
