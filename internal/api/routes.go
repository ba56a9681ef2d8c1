package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sirosfoundation/go-dugong/internal/modes"
)

// APIPrefix groups the fragment and JSON endpoints
const APIPrefix = "/api"

// Route is one entry of the route table
type Route struct {
	Method  string
	Path    string
	Feature modes.Feature
	Handler gin.HandlerFunc
}

// IsAPI reports whether the route lives under /api
func (r Route) IsAPI() bool {
	return r.Path == APIPrefix || strings.HasPrefix(r.Path, APIPrefix+"/")
}

// Routes returns the full route table. Handlers may be nil when only the
// table itself is needed.
func (h *Handlers) Routes() []Route {
	return []Route{
		{http.MethodGet, "/", modes.FeatureNone, h.Index},
		{http.MethodGet, "/about", modes.FeatureAbout, h.About},
		{http.MethodGet, "/faq", modes.FeatureSubPages, h.FAQ},
		{http.MethodGet, "/contact", modes.FeatureSubPages, h.Contact},
		{http.MethodGet, APIPrefix + "/greet", modes.FeatureAbout, h.Greet},
		{http.MethodGet, APIPrefix + "/messages", modes.FeaturePersistence, h.Messages},
		{http.MethodGet, APIPrefix + "/clicked", modes.FeatureDemo, h.Clicked},
		{http.MethodGet, "/health", modes.FeatureNone, h.Status},
		{http.MethodGet, "/status", modes.FeatureNone, h.Status},
	}
}

// EnabledRoutes filters routes by the enabled features
func EnabledRoutes(routes []Route, features modes.Features) []Route {
	enabled := make([]Route, 0, len(routes))
	for _, r := range routes {
		if features.Enabled(r.Feature) {
			enabled = append(enabled, r)
		}
	}
	return enabled
}
