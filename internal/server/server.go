package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-dugong/pkg/config"
	"github.com/sirosfoundation/go-dugong/pkg/middleware"
)

// RouteProvider allows components to register their routes on the shared router.
// This separates route definition from server lifecycle management.
type RouteProvider interface {
	// RegisterRoutes adds the provider's routes to the router.
	RegisterRoutes(router *gin.Engine)

	// Name returns the provider name for logging
	Name() string
}

// ServerConfig holds the server settings
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	CORS  config.CORSConfig
	Debug bool
}

// ServerConfigFrom builds a ServerConfig from the file configuration
func ServerConfigFrom(cfg *config.Config) *ServerConfig {
	return &ServerConfig{
		Address:      cfg.Server.Address(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
		CORS:         cfg.CORS,
		Debug:        cfg.Logging.IsDebug(),
	}
}

// Manager owns the router and the HTTP server
type Manager struct {
	cfg    *ServerConfig
	logger *zap.Logger

	providers  []RouteProvider
	htmlRender render.HTMLRender

	router     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	serveErr   chan error
}

// NewManager creates a new server manager
func NewManager(cfg *ServerConfig, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		logger:    logger,
		providers: make([]RouteProvider, 0),
		serveErr:  make(chan error, 1),
	}
}

// AddProvider adds a RouteProvider to the manager.
// Call this before Start() to register all routes.
func (m *Manager) AddProvider(p RouteProvider) {
	m.providers = append(m.providers, p)
	m.logger.Debug("Added route provider", zap.String("name", p.Name()))
}

// SetHTMLRender sets the template renderer used by c.HTML
func (m *Manager) SetHTMLRender(r render.HTMLRender) {
	m.htmlRender = r
}

// Router builds the router on first use and returns it
func (m *Manager) Router() *gin.Engine {
	if m.router != nil {
		return m.router
	}

	if m.cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	m.router = m.buildRouter()
	if m.htmlRender != nil {
		m.router.HTMLRender = m.htmlRender
	}

	for _, p := range m.providers {
		m.logger.Info("Registering routes", zap.String("provider", p.Name()))
		p.RegisterRoutes(m.router)
	}
	return m.router
}

// Start binds the listener and serves in the background.
// A bind failure is returned, later serve errors arrive on Errors().
func (m *Manager) Start(ctx context.Context) error {
	router := m.Router()

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", m.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.cfg.Address, err)
	}
	m.listener = ln

	m.httpServer = &http.Server{
		Handler:      router,
		ReadTimeout:  m.cfg.ReadTimeout,
		WriteTimeout: m.cfg.WriteTimeout,
		IdleTimeout:  m.cfg.IdleTimeout,
	}

	go func() {
		m.logger.Info("HTTP server listening", zap.String("address", ln.Addr().String()))
		if err := m.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("HTTP server error", zap.Error(err))
			m.serveErr <- err
		}
	}()

	return nil
}

// Errors delivers a serve error after Start succeeded
func (m *Manager) Errors() <-chan error {
	return m.serveErr
}

// Addr returns the bound address, nil before Start
func (m *Manager) Addr() net.Addr {
	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

// Shutdown gracefully shuts down the server
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.httpServer == nil {
		return nil
	}
	if err := m.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}

// buildRouter creates a new router with common middleware
func (m *Manager) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(m.logger))
	router.Use(secure.New(secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	router.Use(cors.New(corsConfig(m.cfg.CORS)))
	return router
}

func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:     c.AllowedMethods,
		AllowHeaders:     c.AllowedHeaders,
		ExposeHeaders:    c.ExposedHeaders,
		AllowCredentials: c.AllowCredentials,
		MaxAge:           time.Duration(c.MaxAge) * time.Second,
	}
	if slices.Contains(c.AllowedOrigins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.AllowedOrigins
	}
	return cc
}
