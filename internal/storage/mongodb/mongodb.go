package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirosfoundation/go-dugong/internal/domain"
	"github.com/sirosfoundation/go-dugong/internal/storage"
	"github.com/sirosfoundation/go-dugong/pkg/config"
)

// Store implements MongoDB storage for the guestbook
type Store struct {
	client     *mongo.Client
	database   *mongo.Database
	collection *mongo.Collection
	cfg        *config.MongoDBConfig
}

// NewStore connects to MongoDB. The store only reads, so it never creates
// collections or indexes on the server.
func NewStore(ctx context.Context, cfg *config.MongoDBConfig) (*Store, error) {
	return newStore(ctx, cfg)
}

func newStore(ctx context.Context, cfg *config.MongoDBConfig, extra ...*options.ClientOptions) (*Store, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(time.Duration(cfg.Timeout) * time.Second).
		SetServerSelectionTimeout(time.Duration(cfg.Timeout) * time.Second)

	client, err := mongo.Connect(ctx, append([]*options.ClientOptions{clientOptions}, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)
	return &Store{
		client:     client,
		database:   database,
		collection: database.Collection(cfg.Collection),
		cfg:        cfg,
	}, nil
}

// ListEntries returns all documents ordered by id, highest first.
// The driver's _id is not part of the row.
func (s *Store) ListEntries(ctx context.Context) (domain.GuestbookEntries, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: domain.IDColumn, Value: -1}}).
		SetProjection(bson.D{{Key: "_id", Value: 0}})

	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	entries := domain.GuestbookEntries{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, classify(err)
		}
		entries = append(entries, domain.GuestbookEntry(doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, classify(err)
	}

	return entries, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return &storage.QueryError{Code: cmdErr.Name, Message: cmdErr.Message}
	}

	return &storage.QueryError{Message: err.Error()}
}
