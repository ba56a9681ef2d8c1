package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-dugong/internal/storage"
	"github.com/sirosfoundation/go-dugong/internal/storage/memory"
	"github.com/sirosfoundation/go-dugong/pkg/config"
)

func TestNew_MemoryBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Type = config.StorageMemory

	backend, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = backend.Close() }()

	assert.Equal(t, TypeMemory, backend.Type())
	require.NotNil(t, backend.Guestbook())
	assert.NoError(t, backend.Ping(context.Background()))

	entries, err := backend.Guestbook().ListEntries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNew_SupabaseBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Service.URL = "https://example.supabase.co"
	cfg.Service.Key = "anon"

	backend, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	assert.Equal(t, TypeSupabase, backend.Type())
}

func TestNew_SupabaseWithoutCredentials(t *testing.T) {
	cfg := config.Default()

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestNew_SQLiteBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Type = config.StorageSQLite
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "guestbook.db")

	backend, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	assert.Equal(t, TypeSQLite, backend.Type())
	assert.NoError(t, backend.Ping(context.Background()))
}

func TestNew_PostgresWithoutDSN(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Type = config.StoragePostgres

	_, err := New(context.Background(), cfg)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestNew_UnsupportedType(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Type = "redis"

	_, err := New(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for unsupported storage type")
	}
}

func TestUnavailable(t *testing.T) {
	backend := Unavailable("API_URL, API_KEY not set")

	assert.Equal(t, TypeUnavailable, backend.Type())

	_, err := backend.Guestbook().ListEntries(context.Background())
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Contains(t, err.Error(), "API_URL")

	assert.ErrorIs(t, backend.Ping(context.Background()), storage.ErrUnavailable)
	assert.NoError(t, backend.Close())
}

func TestWrap(t *testing.T) {
	backend := Wrap(TypeMemory, memory.NewStore())
	assert.Equal(t, TypeMemory, backend.Type())
	assert.NoError(t, backend.Ping(context.Background()))
}
