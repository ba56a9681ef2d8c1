package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-dugong/internal/api"
	"github.com/sirosfoundation/go-dugong/internal/modes"
	"github.com/sirosfoundation/go-dugong/internal/static"
	"github.com/sirosfoundation/go-dugong/pkg/middleware"
)

// =============================================================================
// Site Provider - pages, fragments and the guestbook API
// =============================================================================

// SiteProvider registers the enabled part of the route table
type SiteProvider struct {
	handlers    *api.Handlers
	features    modes.Features
	rateLimiter *middleware.RateLimiter
	logger      *zap.Logger
}

// NewSiteProvider creates the site route provider. rl may be nil.
func NewSiteProvider(handlers *api.Handlers, features modes.Features, rl *middleware.RateLimiter, logger *zap.Logger) *SiteProvider {
	return &SiteProvider{
		handlers:    handlers,
		features:    features,
		rateLimiter: rl,
		logger:      logger,
	}
}

func (p *SiteProvider) Name() string { return "site" }

func (p *SiteProvider) RegisterRoutes(router *gin.Engine) {
	for _, r := range api.EnabledRoutes(p.handlers.Routes(), p.features) {
		chain := make([]gin.HandlerFunc, 0, 3)
		if r.IsAPI() && p.rateLimiter != nil {
			chain = append(chain, middleware.RateLimitMiddleware(p.rateLimiter, p.logger))
		}
		if r.Feature == modes.FeatureSubPages {
			chain = append(chain, middleware.Vary())
		}
		chain = append(chain, r.Handler)

		router.Handle(r.Method, r.Path, chain...)
		p.logger.Debug("Route registered",
			zap.String("method", r.Method),
			zap.String("path", r.Path),
			zap.String("feature", string(r.Feature)))
	}
}

// Close stops the rate limiter
func (p *SiteProvider) Close() error {
	if p.rateLimiter != nil {
		p.rateLimiter.Stop()
	}
	return nil
}

// =============================================================================
// Static Provider - public files for everything no route matched
// =============================================================================

// StaticProvider installs the static file server as the NoRoute handler
type StaticProvider struct {
	server *static.Server
}

// NewStaticProvider creates the static route provider
func NewStaticProvider(s *static.Server) *StaticProvider {
	return &StaticProvider{server: s}
}

func (p *StaticProvider) Name() string { return "static" }

func (p *StaticProvider) RegisterRoutes(router *gin.Engine) {
	router.NoRoute(p.server.Handler())
}
