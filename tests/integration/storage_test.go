package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-dugong/internal/storage/sqlstore"
	"github.com/sirosfoundation/go-dugong/pkg/config"
)

type seedEntry struct {
	ID      int
	Name    string
	Message string
}

var sampleEntries = []seedEntry{
	{ID: 1, Name: "Ada", Message: "Hello"},
	{ID: 3, Name: "Carol", Message: "Third!"},
	{ID: 2, Name: "Bob", Message: "Nice site"},
}

// WithSeededSQLite points the server at a SQLite file holding entries
func WithSeededSQLite(t *testing.T, entries ...seedEntry) TestHarnessOption {
	t.Helper()

	cfg := config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "guestbook.db")}
	store, err := sqlstore.NewSQLite(context.Background(), &cfg, "guestbook")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	db, err := sqlx.Connect("sqlite", cfg.Path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	for _, e := range entries {
		db.MustExec(`INSERT INTO guestbook (id, name, message) VALUES (?, ?, ?)`, e.ID, e.Name, e.Message)
	}

	return WithConfig(func(c *config.Config) {
		c.Storage.Type = config.StorageSQLite
		c.Storage.SQLite = cfg
		c.Service.Table = "guestbook"
	})
}

// fakePostgREST answers the guestbook query like a hosted Supabase project
func fakePostgREST(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func withService(url string) TestHarnessOption {
	return WithConfig(func(cfg *config.Config) {
		cfg.Storage.Type = config.StorageSupabase
		cfg.Service.URL = url
		cfg.Service.Key = "anon-key"
		cfg.Service.Schema = "public_v2"
		cfg.Service.Table = "guestbook"
	})
}

func assertDescending(t *testing.T, entries []map[string]any) {
	t.Helper()
	for i := 1; i < len(entries); i++ {
		prev, _ := entries[i-1]["id"].(float64)
		cur, _ := entries[i]["id"].(float64)
		assert.Greater(t, prev, cur, "entries %d and %d are out of order", i-1, i)
	}
}

func TestMessages_SQLite(t *testing.T) {
	h := NewTestHarness(t, WithSeededSQLite(t, sampleEntries...))

	var entries []map[string]any
	h.GET("/api/messages").Status(http.StatusOK).ContentType("application/json").JSON(&entries)

	require.Len(t, entries, 3)
	assertDescending(t, entries)
	assert.Equal(t, "Carol", entries[0]["name"])
}

func TestMessages_SQLiteEmpty(t *testing.T) {
	h := NewTestHarness(t, WithSeededSQLite(t))

	h.GET("/api/messages").Status(http.StatusOK).BodyEquals("[]")
}

func TestMessages_Supabase(t *testing.T) {
	var requests atomic.Int32
	srv := fakePostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/rest/v1/guestbook", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, "public_v2", r.Header.Get("Accept-Profile"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("limit") == "1" {
			_, _ = w.Write([]byte(`[{"id":12}]`))
			return
		}
		assert.Equal(t, "id.desc", r.URL.Query().Get("order"))
		_, _ = w.Write([]byte(`[{"id":12,"text":"b","extra":{"x":1}},{"id":9007199254740993,"text":"a"}]`))
	})

	h := NewTestHarness(t, withService(srv.URL))

	resp := h.GET("/api/messages").Status(http.StatusOK)
	// rows pass through untouched, including large ids and nested columns
	assert.JSONEq(t, `[{"id":12,"text":"b","extra":{"x":1}},{"id":9007199254740993,"text":"a"}]`, string(resp.Body()))
	assert.Contains(t, string(resp.Body()), "9007199254740993")
	assert.GreaterOrEqual(t, requests.Load(), int32(2), "startup ping plus the query")
}

func TestMessages_SupabaseQueryError(t *testing.T) {
	srv := fakePostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "42P01",
			"message": `relation "public_v2.guestbook" does not exist`,
		})
	})

	h := NewTestHarness(t, withService(srv.URL))

	var body map[string]string
	h.GET("/api/messages").Status(http.StatusBadGateway).JSON(&body)
	assert.Equal(t, "Failed to load guestbook entries", body["error"])
	assert.NotContains(t, body["error"], "42P01", "driver details stay in the log")
}

func TestMessages_SupabaseUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	h := NewTestHarness(t, withService(url))

	var body map[string]string
	h.GET("/api/messages").Status(http.StatusServiceUnavailable).JSON(&body)
	assert.Equal(t, "Guestbook is unavailable", body["error"])
}

func TestMessages_DisabledWithoutPersistence(t *testing.T) {
	h := NewTestHarness(t, WithVariant("base"))

	h.GET("/api/messages").Status(http.StatusNotFound)
}
