package mongodb

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirosfoundation/go-dugong/pkg/config"
)

func getTestMongoURI() string {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	return uri
}

func testMongoConfig() *config.MongoDBConfig {
	return &config.MongoDBConfig{
		URI:        getTestMongoURI(),
		Database:   "dugong_test",
		Collection: "guestbook",
		Timeout:    2,
	}
}

func skipIfNoMongo(t *testing.T) *Store {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := NewStore(ctx, testMongoConfig())
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
		return nil
	}

	// Clean up test database
	t.Cleanup(func() {
		ctx := context.Background()
		_ = store.database.Drop(ctx)
		_ = store.Close()
	})

	return store
}

func TestNewStore(t *testing.T) {
	store := skipIfNoMongo(t)
	require.NotNil(t, store)
}

func TestStore_Ping(t *testing.T) {
	store := skipIfNoMongo(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := store.Ping(ctx)
	assert.NoError(t, err)
}

func TestStore_ListEntries(t *testing.T) {
	store := skipIfNoMongo(t)
	ctx := context.Background()

	_, err := store.collection.InsertMany(ctx, []interface{}{
		bson.M{"id": 1, "name": "Ann", "message": "first"},
		bson.M{"id": 3, "name": "Cy", "message": "third"},
		bson.M{"id": 2, "name": "Bob", "message": "second"},
	})
	require.NoError(t, err)

	entries, err := store.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.NoError(t, entries.CheckDescending())
	assert.Equal(t, "Cy", entries[0]["name"])
	assert.NotContains(t, entries[0], "_id")
}

func TestStore_ListEntries_Empty(t *testing.T) {
	store := skipIfNoMongo(t)

	entries, err := store.ListEntries(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

// commandLog records the names of the commands a client sends
type commandLog struct {
	mu    sync.Mutex
	names []string
}

func (l *commandLog) monitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(_ context.Context, e *event.CommandStartedEvent) {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.names = append(l.names, e.CommandName)
		},
	}
}

func (l *commandLog) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

func TestStore_ReadOnly(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := testMongoConfig()
	cfg.Database = "dugong_readonly_test"

	var log commandLog
	store, err := newStore(ctx, cfg, options.Client().SetMonitor(log.monitor()))
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	t.Cleanup(func() {
		_ = store.database.Drop(context.Background())
		_ = store.Close()
	})

	entries, err := store.ListEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, store.Ping(ctx))

	for _, name := range log.Names() {
		assert.Contains(t, []string{"ping", "find", "getMore", "killCursors", "endSessions"}, name,
			"unexpected command %q", name)
	}

	names, err := store.database.ListCollectionNames(ctx, bson.D{})
	require.NoError(t, err)
	assert.NotContains(t, names, cfg.Collection)
}
