package backend

import (
	"context"
	"fmt"

	"github.com/sirosfoundation/go-dugong/internal/storage"
	"github.com/sirosfoundation/go-dugong/internal/storage/memory"
	"github.com/sirosfoundation/go-dugong/internal/storage/mongodb"
	"github.com/sirosfoundation/go-dugong/internal/storage/sqlstore"
	"github.com/sirosfoundation/go-dugong/internal/storage/supabase"
	"github.com/sirosfoundation/go-dugong/pkg/config"
)

// Type defines the type of storage backend
type Type string

const (
	// TypeSupabase reads through the hosted PostgREST API
	TypeSupabase Type = config.StorageSupabase
	// TypePostgres connects to the database directly
	TypePostgres Type = config.StoragePostgres
	// TypeSQLite uses a local database file
	TypeSQLite Type = config.StorageSQLite
	// TypeMongoDB uses MongoDB storage
	TypeMongoDB Type = config.StorageMongoDB
	// TypeMemory uses in-memory storage (for testing/development)
	TypeMemory Type = config.StorageMemory
	// TypeUnavailable is the degraded backend used when credentials are missing
	TypeUnavailable Type = "unavailable"
)

// Backend wraps a guestbook store with lifecycle management
type Backend interface {
	// Guestbook returns the guestbook store
	Guestbook() storage.GuestbookStore
	// Type reports which implementation is in use
	Type() Type
	// Ping checks if the storage is alive
	Ping(ctx context.Context) error
	// Close closes the storage connection
	Close() error
}

// Store is what every storage implementation provides
type Store interface {
	storage.GuestbookStore
	Ping(ctx context.Context) error
	Close() error
}

type wrapped struct {
	typ   Type
	store Store
}

func (b *wrapped) Guestbook() storage.GuestbookStore { return b.store }
func (b *wrapped) Type() Type                        { return b.typ }
func (b *wrapped) Ping(ctx context.Context) error    { return b.store.Ping(ctx) }
func (b *wrapped) Close() error                      { return b.store.Close() }

// Wrap exposes an existing store as a Backend
func Wrap(typ Type, s Store) Backend {
	return &wrapped{typ: typ, store: s}
}

// New creates a storage backend based on the configuration
func New(ctx context.Context, cfg *config.Config) (Backend, error) {
	storageType := Type(cfg.Storage.Type)

	switch storageType {
	case TypeSupabase, "":
		s, err := supabase.NewStore(&cfg.Service)
		if err != nil {
			return nil, fmt.Errorf("failed to create Supabase backend: %w", err)
		}
		return &wrapped{typ: TypeSupabase, store: s}, nil

	case TypePostgres:
		s, err := sqlstore.NewPostgres(ctx, &cfg.Storage.Postgres, &cfg.Service)
		if err != nil {
			return nil, fmt.Errorf("failed to create Postgres backend: %w", err)
		}
		return &wrapped{typ: TypePostgres, store: s}, nil

	case TypeSQLite:
		s, err := sqlstore.NewSQLite(ctx, &cfg.Storage.SQLite, cfg.Service.Table)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		return &wrapped{typ: TypeSQLite, store: s}, nil

	case TypeMongoDB:
		s, err := mongodb.NewStore(ctx, &cfg.Storage.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to create MongoDB backend: %w", err)
		}
		return &wrapped{typ: TypeMongoDB, store: s}, nil

	case TypeMemory:
		return &wrapped{typ: TypeMemory, store: memory.NewStore()}, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// Unavailable returns the degraded backend: every read fails with storage.ErrUnavailable
func Unavailable(reason string) Backend {
	return &wrapped{typ: TypeUnavailable, store: unavailableStore{reason: reason}}
}
