package service

import (
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-dugong/internal/backend"
	"github.com/sirosfoundation/go-dugong/pkg/config"
)

// Services aggregates all application services
type Services struct {
	Guestbook *GuestbookService
	Backend   backend.Backend
}

// NewServices creates a new Services instance
func NewServices(store backend.Backend, cfg *config.Config, logger *zap.Logger) *Services {
	return &Services{
		Guestbook: NewGuestbookService(store.Guestbook(), cfg, logger),
		Backend:   store,
	}
}
