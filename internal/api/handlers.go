package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-dugong/internal/modes"
	"github.com/sirosfoundation/go-dugong/internal/render"
	"github.com/sirosfoundation/go-dugong/internal/service"
	"github.com/sirosfoundation/go-dugong/pkg/config"
	"github.com/sirosfoundation/go-dugong/pkg/middleware"
)

const (
	// GreetingFragment is returned by /api/greet
	GreetingFragment = "<em>Hello from <strong>Gin</strong></em>"
	// ClickedFragment is returned by /api/clicked
	ClickedFragment = "<p>You clicked the button!</p>"

	htmlContentType = "text/html; charset=utf-8"
)

// Template ids
const (
	TemplateIndex   = "pages/index"
	TemplateAbout   = "pages/about"
	TemplateFAQ     = "subpages/faq"
	TemplateContact = "subpages/contact"
)

// PageData is passed to every page template
type PageData struct {
	Title    string
	Path     string
	Partial  bool
	Features modes.Features
}

// Handlers aggregates all HTTP handlers
type Handlers struct {
	services *service.Services
	renderer *render.Renderer
	features modes.Features
	cfg      *config.Config
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services *service.Services, renderer *render.Renderer, features modes.Features, cfg *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{
		services: services,
		renderer: renderer,
		features: features,
		cfg:      cfg,
		logger:   logger.Named("handlers"),
	}
}

// Features returns the features the handlers were built for
func (h *Handlers) Features() modes.Features {
	return h.features
}

// Index renders the landing page
func (h *Handlers) Index(c *gin.Context) {
	h.page(c, TemplateIndex, "Dugong")
}

// About renders the about page
func (h *Handlers) About(c *gin.Context) {
	h.page(c, TemplateAbout, "About")
}

// FAQ renders the faq fragment for htmx requests and the index page otherwise
func (h *Handlers) FAQ(c *gin.Context) {
	h.subPage(c, TemplateFAQ, "FAQ")
}

// Contact renders the contact fragment for htmx requests and the index page otherwise
func (h *Handlers) Contact(c *gin.Context) {
	h.subPage(c, TemplateContact, "Contact")
}

// Greet returns a static HTML fragment
func (h *Handlers) Greet(c *gin.Context) {
	c.Data(http.StatusOK, htmlContentType, []byte(GreetingFragment))
}

// Clicked returns the demo button response fragment
func (h *Handlers) Clicked(c *gin.Context) {
	c.Data(http.StatusOK, htmlContentType, []byte(ClickedFragment))
}

// Messages returns the guestbook entries, newest first
func (h *Handlers) Messages(c *gin.Context) {
	entries, err := h.services.Guestbook.Entries(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, service.ErrGuestbookUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Guestbook is unavailable"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load guestbook entries"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// Status handles the /health and /status endpoints
func (h *Handlers) Status(c *gin.Context) {
	storageType := "none"
	if h.services != nil && h.services.Backend != nil {
		storageType = string(h.services.Backend.Type())
	}

	c.JSON(http.StatusOK, StatusResponse{
		Status:   "ok",
		Service:  ServiceName,
		Version:  Version,
		Features: h.features.Names(),
		Storage:  storageType,
	})
}

func (h *Handlers) subPage(c *gin.Context, id, title string) {
	if middleware.IsPartial(c) {
		h.page(c, id, title)
		return
	}
	h.page(c, TemplateIndex, "Dugong")
}

func (h *Handlers) page(c *gin.Context, id, title string) {
	var buf bytes.Buffer
	err := h.renderer.Execute(&buf, id, PageData{
		Title:    title,
		Path:     c.Request.URL.Path,
		Partial:  middleware.IsPartial(c),
		Features: h.features,
	})
	if err != nil {
		h.logger.Error("Failed to render page",
			zap.String("template", id),
			zap.Error(err))
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}
