package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-dugong/internal/domain"
	"github.com/sirosfoundation/go-dugong/internal/storage"
	"github.com/sirosfoundation/go-dugong/pkg/config"
)

// Service errors
var (
	ErrGuestbookUnavailable = errors.New("guestbook unavailable")
	ErrGuestbookQuery       = errors.New("guestbook query failed")
)

// GuestbookService reads guestbook entries from the configured store
type GuestbookService struct {
	store   storage.GuestbookStore
	timeout time.Duration
	logger  *zap.Logger
}

// NewGuestbookService creates a new GuestbookService
func NewGuestbookService(store storage.GuestbookStore, cfg *config.Config, logger *zap.Logger) *GuestbookService {
	timeout := time.Duration(cfg.Service.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GuestbookService{
		store:   store,
		timeout: timeout,
		logger:  logger.Named("guestbook"),
	}
}

// Entries returns all entries, highest id first.
// Failures are logged and returned as ErrGuestbookUnavailable or ErrGuestbookQuery,
// wrapping the store error. A caller that went away is not logged as an error.
func (s *GuestbookService) Entries(ctx context.Context) (domain.GuestbookEntries, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	entries, err := s.store.ListEntries(queryCtx)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			s.logger.Debug("Guestbook query canceled",
				zap.Error(err),
				zap.Duration("elapsed", time.Since(start)),
			)
			return nil, fmt.Errorf("%w: %w", ErrGuestbookUnavailable, err)
		}
		s.logger.Error("Error fetching guestbook entries",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
		if errors.Is(err, storage.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrGuestbookUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrGuestbookQuery, err)
	}

	if entries == nil {
		entries = domain.GuestbookEntries{}
	}

	s.logger.Debug("Fetched guestbook entries",
		zap.Int("count", len(entries)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return entries, nil
}
