package backend

import (
	"context"
	"fmt"

	"github.com/sirosfoundation/go-dugong/internal/domain"
	"github.com/sirosfoundation/go-dugong/internal/storage"
)

// unavailableStore stands in when no data service is configured
type unavailableStore struct {
	reason string
}

func (u unavailableStore) ListEntries(ctx context.Context) (domain.GuestbookEntries, error) {
	return nil, u.err()
}

func (u unavailableStore) Ping(ctx context.Context) error { return u.err() }
func (u unavailableStore) Close() error                   { return nil }

func (u unavailableStore) err() error {
	if u.reason == "" {
		return storage.ErrUnavailable
	}
	return fmt.Errorf("%w: %s", storage.ErrUnavailable, u.reason)
}
