package memory

import (
	"context"
	"sync"

	"github.com/sirosfoundation/go-dugong/internal/domain"
)

// Store implements an in-memory guestbook
type Store struct {
	mu     sync.RWMutex
	data   domain.GuestbookEntries
	nextID int64
}

// NewStore creates a new in-memory store holding the given rows
func NewStore(seed ...domain.GuestbookEntry) *Store {
	s := &Store{nextID: 1}
	for _, e := range seed {
		s.insert(e)
	}
	return s
}

// Add stores a copy of the row. Rows without an id get the next free one.
func (s *Store) Add(entry domain.GuestbookEntry) domain.GuestbookEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(entry)
}

func (s *Store) insert(entry domain.GuestbookEntry) domain.GuestbookEntry {
	row := copyEntry(entry)
	id, ok := row.ID()
	if !ok {
		id = s.nextID
		row[domain.IDColumn] = id
	}
	if id >= s.nextID {
		s.nextID = id + 1
	}
	s.data = append(s.data, row)
	return copyEntry(row)
}

// ListEntries returns copies of all rows, highest id first
func (s *Store) ListEntries(ctx context.Context) (domain.GuestbookEntries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make(domain.GuestbookEntries, 0, len(s.data))
	for _, e := range s.data {
		entries = append(entries, copyEntry(e))
	}
	entries.SortByIDDesc()
	return entries, nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

func copyEntry(e domain.GuestbookEntry) domain.GuestbookEntry {
	c := make(domain.GuestbookEntry, len(e))
	for k, v := range e {
		c[k] = v
	}
	return c
}
