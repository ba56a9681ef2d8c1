// Package api provides the HTTP handlers of the dugong server.
package api

// ServiceName is reported by the status endpoints
const ServiceName = "dugong"

// Version is overridden at build time with
// -ldflags "-X github.com/sirosfoundation/go-dugong/internal/api.Version=..."
var Version = "dev"

// StatusResponse is the response from the /health and /status endpoints.
type StatusResponse struct {
	Status   string   `json:"status"`
	Service  string   `json:"service"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
	Storage  string   `json:"storage"`
}
