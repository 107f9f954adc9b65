// Package mongo provides a MongoDB record store.
//
// Records live in the "transactions" collection keyed by a numeric _id.
// Ids come from a sequence document in the "counters" collection so they
// stay monotonic and are never reused, even after DeleteAll.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ArionMiles/paysms/pkg/api"
)

const (
	// TransactionsCollection holds one document per record.
	TransactionsCollection = "transactions"
	countersCollection     = "counters"
	sequenceName           = "transactions"
)

// Config holds the MongoDB store configuration.
type Config struct {
	URI      string
	Database string
}

// document is the stored shape of an api.Record.
type document struct {
	ID         int64                `bson:"_id"`
	Amount     primitive.Decimal128 `bson:"amount"`
	Merchant   string               `bson:"merchant_name"`
	Category   string               `bson:"category"`
	Notes      string               `bson:"notes"`
	OccurredAt time.Time            `bson:"occurred_at"`
	Reference  string               `bson:"reference_number"`
	SourceText string               `bson:"original_sms"`
}

type counter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// Store persists records in MongoDB.
type Store struct {
	client       *mongo.Client
	transactions *mongo.Collection
	counters     *mongo.Collection
	logger       *slog.Logger
}

// New connects to MongoDB, verifies the connection and ensures indexes.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URI == "" {
		return nil, errors.New("mongo URI is required")
	}
	if cfg.Database == "" {
		cfg.Database = "paysms"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client:       client,
		transactions: db.Collection(TransactionsCollection),
		counters:     db.Collection(countersCollection),
		logger:       logger,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("connected to MongoDB", "database", cfg.Database)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.transactions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "occurred_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}
	return nil
}

func (s *Store) nextID(ctx context.Context) (int64, error) {
	var c counter
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": sequenceName},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("allocating id: %w", err)
	}
	return c.Seq, nil
}

// Insert stores r under a freshly allocated id.
func (s *Store) Insert(ctx context.Context, r api.Record) (int64, error) {
	id, err := s.nextID(ctx)
	if err != nil {
		return 0, err
	}
	r.ID = id

	doc, err := toDocument(r)
	if err != nil {
		return 0, err
	}
	if _, err := s.transactions.InsertOne(ctx, doc); err != nil {
		return 0, fmt.Errorf("inserting transaction: %w", err)
	}

	s.logger.Debug("inserted transaction", "id", id, "merchant", r.Merchant)
	return id, nil
}

// Update replaces the document with r.ID.
func (s *Store) Update(ctx context.Context, r api.Record) error {
	doc, err := toDocument(r)
	if err != nil {
		return err
	}
	res, err := s.transactions.ReplaceOne(ctx, bson.M{"_id": r.ID}, doc)
	if err != nil {
		return fmt.Errorf("updating transaction %d: %w", r.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("updating transaction %d: %w", r.ID, api.ErrNotFound)
	}
	return nil
}

// DeleteByID removes the document with id.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.transactions.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("deleting transaction %d: %w", id, err)
	}
	return nil
}

// GetByID returns the record with id.
func (s *Store) GetByID(ctx context.Context, id int64) (api.Record, error) {
	var doc document
	err := s.transactions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return api.Record{}, fmt.Errorf("getting transaction %d: %w", id, api.ErrNotFound)
		}
		return api.Record{}, fmt.Errorf("getting transaction %d: %w", id, err)
	}
	return doc.record()
}

// ListAll returns every record, most recent first.
func (s *Store) ListAll(ctx context.Context) ([]api.Record, error) {
	return s.find(ctx, bson.M{})
}

// ListByCategory returns records in category, most recent first.
func (s *Store) ListByCategory(ctx context.Context, category string) ([]api.Record, error) {
	return s.find(ctx, bson.M{"category": category})
}

// DeleteAll removes every record. The id sequence is left untouched.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.transactions.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("deleting transactions: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting from MongoDB: %w", err)
	}
	s.logger.Info("closed MongoDB connection")
	return nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]api.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := s.transactions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding transactions: %w", err)
	}

	records := make([]api.Record, 0, len(docs))
	for _, doc := range docs {
		r, err := doc.record()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func toDocument(r api.Record) (document, error) {
	amount, err := primitive.ParseDecimal128(r.Amount.String())
	if err != nil {
		return document{}, fmt.Errorf("encoding amount %s: %w", r.Amount, err)
	}
	return document{
		ID:         r.ID,
		Amount:     amount,
		Merchant:   r.Merchant,
		Category:   r.Category,
		Notes:      r.Notes,
		OccurredAt: r.OccurredAt.UTC(),
		Reference:  r.Reference,
		SourceText: r.SourceText,
	}, nil
}

func (d document) record() (api.Record, error) {
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return api.Record{}, fmt.Errorf("parsing amount %q of transaction %d: %w", d.Amount.String(), d.ID, err)
	}
	return api.Record{
		ID:         d.ID,
		Amount:     amount,
		Merchant:   d.Merchant,
		Category:   d.Category,
		Notes:      d.Notes,
		OccurredAt: d.OccurredAt,
		Reference:  d.Reference,
		SourceText: d.SourceText,
	}, nil
}
