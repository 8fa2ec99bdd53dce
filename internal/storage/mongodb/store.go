// Package mongodb implements the exchange journal using MongoDB
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yeeli/allinpay/internal/storage"
	"github.com/yeeli/allinpay/pkg/gateway"
)

// Store implements storage.Journal using MongoDB
type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	exchanges *mongo.Collection
}

var _ storage.Journal = (*Store)(nil)

// Config holds MongoDB connection settings
type Config struct {
	URI        string
	Database   string
	Collection string
	// Timeout bounds connecting and index creation
	Timeout time.Duration
}

// NewStore connects to MongoDB and prepares the exchange collection
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg == nil || cfg.URI == "" {
		return nil, fmt.Errorf("mongodb uri is required")
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	// Connect to MongoDB
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	// Verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "allinpay"
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "exchanges"
	}

	db := client.Database(database)
	s := &Store{
		client:    client,
		db:        db,
		exchanges: db.Collection(collection),
	}

	if err := s.createIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating indexes: %w", err)
	}

	return s, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	_, err := s.exchanges.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "serial", Value: 1}, {Key: "started_at", Value: -1}}},
		{Keys: bson.D{{Key: "trx_code", Value: 1}, {Key: "outcome", Value: 1}, {Key: "started_at", Value: -1}}},
		{Keys: bson.D{{Key: "started_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("creating exchange indexes: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// RecordExchange inserts rec, assigning an ID when empty.
func (s *Store) RecordExchange(ctx context.Context, rec *gateway.ExchangeRecord) error {
	if rec.ID == "" {
		rec.ID = primitive.NewObjectID().Hex()
	}
	_, err := s.exchanges.InsertOne(ctx, rec)
	if err != nil {
		return fmt.Errorf("inserting exchange %s: %w", rec.Serial, err)
	}
	return nil
}

func (s *Store) GetExchange(ctx context.Context, serial string) (*gateway.ExchangeRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}})

	var rec gateway.ExchangeRecord
	err := s.exchanges.FindOne(ctx, bson.M{"serial": serial}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListExchanges(ctx context.Context, filter *storage.ExchangeFilter) ([]*gateway.ExchangeRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			opts.SetLimit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			opts.SetSkip(int64(filter.Offset))
		}
	}

	cursor, err := s.exchanges.Find(ctx, buildQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*gateway.ExchangeRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CountExchanges counts records matching filter. Limit and Offset are ignored.
func (s *Store) CountExchanges(ctx context.Context, filter *storage.ExchangeFilter) (int64, error) {
	return s.exchanges.CountDocuments(ctx, buildQuery(filter))
}

func buildQuery(filter *storage.ExchangeFilter) bson.M {
	query := bson.M{}
	if filter == nil {
		return query
	}
	if filter.TrxCode != "" {
		query["trx_code"] = filter.TrxCode
	}
	if filter.Direction != "" {
		query["direction"] = filter.Direction
	}
	if filter.Outcome != "" {
		query["outcome"] = filter.Outcome
	}
	if filter.RetCode != "" {
		query["ret_code"] = filter.RetCode
	}
	if filter.Since != nil || filter.Until != nil {
		started := bson.M{}
		if filter.Since != nil {
			started["$gte"] = *filter.Since
		}
		if filter.Until != nil {
			started["$lt"] = *filter.Until
		}
		query["started_at"] = started
	}
	return query
}
