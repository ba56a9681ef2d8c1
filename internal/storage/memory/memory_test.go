package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-dugong/internal/domain"
)

func TestNewStore(t *testing.T) {
	store := NewStore()

	if store == nil {
		t.Fatal("NewStore() returned nil")
	}

	entries, err := store.ListEntries(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestStore_ListEntries_Descending(t *testing.T) {
	store := NewStore(
		domain.GuestbookEntry{"id": 1, "name": "first"},
		domain.GuestbookEntry{"id": 3, "name": "third"},
		domain.GuestbookEntry{"id": 2, "name": "second"},
	)

	entries, err := store.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.NoError(t, entries.CheckDescending())
	assert.Equal(t, "third", entries[0]["name"])
}

func TestStore_Add_AssignsIDs(t *testing.T) {
	store := NewStore(domain.GuestbookEntry{"id": 10})

	added := store.Add(domain.GuestbookEntry{"name": "no id"})
	id, ok := added.ID()
	require.True(t, ok)
	assert.Equal(t, int64(11), id)

	entries, err := store.ListEntries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "no id", entries[0]["name"])
}

func TestStore_ListEntries_ReturnsCopies(t *testing.T) {
	store := NewStore(domain.GuestbookEntry{"id": 1, "name": "original"})

	entries, err := store.ListEntries(context.Background())
	require.NoError(t, err)
	entries[0]["name"] = "mutated"

	entries, err = store.ListEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "original", entries[0]["name"])
}

func TestStore_ListEntries_CanceledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ListEntries(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Add(domain.GuestbookEntry{"name": "guest"})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.ListEntries(context.Background())
		}()
	}
	wg.Wait()

	entries, err := store.ListEntries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 50)
	assert.NoError(t, entries.CheckDescending())
}
