// Package app wires configuration, storage, the stylesheet build, templates
// and the HTTP server into one runnable unit.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-dugong/internal/api"
	"github.com/sirosfoundation/go-dugong/internal/backend"
	"github.com/sirosfoundation/go-dugong/internal/modes"
	"github.com/sirosfoundation/go-dugong/internal/render"
	"github.com/sirosfoundation/go-dugong/internal/server"
	"github.com/sirosfoundation/go-dugong/internal/service"
	"github.com/sirosfoundation/go-dugong/internal/static"
	"github.com/sirosfoundation/go-dugong/internal/stylesheet"
	"github.com/sirosfoundation/go-dugong/pkg/config"
	"github.com/sirosfoundation/go-dugong/pkg/middleware"
)

// ErrMissingCredentials is returned under the fail policy when the data
// service is not configured
var ErrMissingCredentials = errors.New("missing data service credentials")

const (
	backendInitTimeout = 30 * time.Second
	backendPingTimeout = 5 * time.Second
)

// App is the assembled server
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	mode     modes.Mode
	features modes.Features

	backend  backend.Backend
	compiler stylesheet.Compiler
	styles   *stylesheet.Builder
	renderer *render.Renderer
	site     *server.SiteProvider
	manager  *server.Manager
}

// New assembles the server. Nothing listens until Start.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	mode, err := modes.ParseMode(cfg.Variant)
	if err != nil {
		return nil, err
	}
	features := modes.Resolve(mode, cfg.Features)

	logger.Info("Features resolved",
		zap.String("variant", string(mode)),
		zap.Strings("features", features.Names()))

	store, err := openGuestbook(ctx, cfg, features, logger)
	if err != nil {
		return nil, err
	}

	styles, compiler, err := NewStylesheetBuilder(cfg, afero.NewOsFs(), logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	renderer := render.NewFromDir(cfg.Server.ViewsDir, &cfg.Templates, logger)
	if ids, err := renderer.Preload("pages", "subpages"); err != nil {
		logger.Warn("Failed to preload templates", zap.String("views", cfg.Server.ViewsDir), zap.Error(err))
	} else {
		logger.Debug("Templates preloaded", zap.Int("count", len(ids)))
	}

	services := service.NewServices(store, cfg, logger)
	handlers := api.NewHandlers(services, renderer, features, cfg, logger)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfigFrom(cfg.RateLimit), logger)
	}
	site := server.NewSiteProvider(handlers, features, limiter, logger)

	files := static.NewFromDir(cfg.Server.StaticRoot, cfg.Server.StaticPrefix, logger)
	if asset, ok := static.AssetPath(cfg.Server.StaticRoot, cfg.Styles.Destination); ok {
		files.Gated(asset, styles)
	} else {
		logger.Warn("Compiled stylesheet lies outside the static root and is not served",
			zap.String("destination", cfg.Styles.Destination),
			zap.String("static_root", cfg.Server.StaticRoot))
	}

	manager := server.NewManager(server.ServerConfigFrom(cfg), logger)
	manager.SetHTMLRender(renderer)
	manager.AddProvider(site)
	manager.AddProvider(server.NewStaticProvider(files))

	return &App{
		cfg:      cfg,
		logger:   logger,
		mode:     mode,
		features: features,
		backend:  store,
		compiler: compiler,
		styles:   styles,
		renderer: renderer,
		site:     site,
		manager:  manager,
	}, nil
}

// Start builds the stylesheet and binds the listener.
// With styles.await the build finishes before the listener exists.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.Styles.Await {
		// failures are logged by the builder, the server starts anyway
		_ = a.styles.Build(ctx)
	} else {
		a.styles.Start(ctx)
	}

	if err := a.manager.Start(ctx); err != nil {
		return err
	}
	return nil
}

// Errors delivers fatal serve errors
func (a *App) Errors() <-chan error {
	return a.manager.Errors()
}

// Addr returns the bound address
func (a *App) Addr() net.Addr {
	return a.manager.Addr()
}

// Router exposes the router, mainly for tests
func (a *App) Router() *gin.Engine {
	return a.manager.Router()
}

// Features returns the resolved features
func (a *App) Features() modes.Features {
	return a.features
}

// Backend returns the guestbook backend
func (a *App) Backend() backend.Backend {
	return a.backend
}

// Stylesheet returns the stylesheet builder
func (a *App) Stylesheet() *stylesheet.Builder {
	return a.styles
}

// Shutdown stops the server and releases all resources
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.manager.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.site.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.compiler.Close(); err != nil {
		errs = append(errs, fmt.Errorf("stylesheet compiler: %w", err))
	}
	if err := a.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	return errors.Join(errs...)
}

// NewStylesheetBuilder creates the builder for the configured compiler
func NewStylesheetBuilder(cfg *config.Config, fs afero.Fs, logger *zap.Logger) (*stylesheet.Builder, stylesheet.Compiler, error) {
	compiler, err := stylesheet.NewCompiler(&cfg.Styles, logger)
	if err != nil {
		return nil, nil, err
	}
	return stylesheet.NewBuilder(fs, compiler, &cfg.Styles, logger), compiler, nil
}

func openGuestbook(ctx context.Context, cfg *config.Config, features modes.Features, logger *zap.Logger) (backend.Backend, error) {
	if !features.Persistence {
		return backend.Unavailable("guestbook disabled"), nil
	}
	return OpenBackend(ctx, cfg, logger)
}

// OpenBackend connects the configured storage and applies the credentials
// policy: under warn a missing or unreachable service yields the
// unavailable backend, under fail it is an error.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (backend.Backend, error) {
	failHard := cfg.CredentialsPolicy == config.CredentialsFail

	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		reason := strings.Join(missing, ", ") + " not set"
		if failHard {
			return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, reason)
		}
		logger.Warn("Data service is not configured, guestbook requests will fail",
			zap.String("storage", cfg.Storage.Type),
			zap.Strings("missing", missing))
		return backend.Unavailable(reason), nil
	}

	initCtx, cancel := context.WithTimeout(ctx, backendInitTimeout)
	store, err := backend.New(initCtx, cfg)
	cancel()
	if err != nil {
		if failHard {
			return nil, fmt.Errorf("failed to initialize storage backend: %w", err)
		}
		logger.Error("Failed to initialize storage backend", zap.Error(err))
		return backend.Unavailable(err.Error()), nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, backendPingTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		if failHard {
			_ = store.Close()
			return nil, fmt.Errorf("failed to ping storage: %w", err)
		}
		logger.Warn("Failed to ping storage", zap.String("type", string(store.Type())), zap.Error(err))
	}

	logger.Info("Storage backend initialized", zap.String("type", string(store.Type())))
	return store, nil
}
