// Package integration runs the assembled dugong server against its shipped
// templates and checks the HTTP surface end to end.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/sirosfoundation/go-dugong/internal/app"
	"github.com/sirosfoundation/go-dugong/pkg/config"
)

// TestStylesheet is the plain CSS source the harness compiles
const TestStylesheet = "body {\n  margin: 0px;\n  color: #123456;\n}\n"

// TestHarness provides a running dugong server and helper methods for
// making requests against it.
type TestHarness struct {
	T      *testing.T
	App    *app.App
	Config *config.Config
	Logger *zap.Logger

	// Client is a pre-configured HTTP client for making requests
	Client *http.Client

	// BaseURL is the URL of the running server
	BaseURL string

	// PublicDir is the static root; the stylesheet is written below it
	PublicDir string
}

// TestHarnessOption configures the test harness
type TestHarnessOption func(*TestHarness)

// WithVariant selects a feature preset
func WithVariant(variant string) TestHarnessOption {
	return func(h *TestHarness) {
		h.Config.Variant = variant
	}
}

// WithConfig lets a test adjust the configuration before the server starts
func WithConfig(fn func(cfg *config.Config)) TestHarnessOption {
	return func(h *TestHarness) {
		fn(h.Config)
	}
}

// WithLogger replaces the test logger
func WithLogger(logger *zap.Logger) TestHarnessOption {
	return func(h *TestHarness) {
		h.Logger = logger
	}
}

// ViewsDir returns the repository's views directory
func ViewsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to locate harness source")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "views")
}

// NewTestHarness starts the server on a free local port
func NewTestHarness(t *testing.T, opts ...TestHarnessOption) *TestHarness {
	t.Helper()

	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	public := filepath.Join(dir, "public")
	if err := os.MkdirAll(public, 0o755); err != nil {
		t.Fatalf("Failed to create static root: %v", err)
	}
	if err := os.WriteFile(filepath.Join(public, "robots.txt"), []byte("User-agent: *\n"), 0o644); err != nil {
		t.Fatalf("Failed to write robots.txt: %v", err)
	}
	source := filepath.Join(dir, "styles.css")
	if err := os.WriteFile(source, []byte(TestStylesheet), 0o644); err != nil {
		t.Fatalf("Failed to write stylesheet source: %v", err)
	}

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ViewsDir = ViewsDir(t)
	cfg.Server.StaticRoot = public
	cfg.Styles.Source = source
	cfg.Styles.Destination = filepath.Join(public, "assets", "styles.css")
	cfg.Styles.Compiler = config.CompilerCSS
	cfg.Storage.Type = config.StorageMemory

	h := &TestHarness{
		T:         t,
		Config:    cfg,
		Logger:    zaptest.NewLogger(t),
		Client:    &http.Client{Timeout: 10 * time.Second},
		PublicDir: public,
	}

	// Apply options
	for _, opt := range opts {
		opt(h)
	}

	a, err := app.New(context.Background(), h.Config, h.Logger)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if err := a.Start(context.Background()); err != nil {
		_ = a.Shutdown(context.Background())
		t.Fatalf("Failed to start server: %v", err)
	}

	h.App = a
	h.BaseURL = "http://" + a.Addr().String()

	// Register cleanup
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})

	return h
}

// Request makes an HTTP request with optional headers
func (h *TestHarness) Request(method, path string, headers map[string]string) *Response {
	h.T.Helper()

	req, err := http.NewRequest(method, h.BaseURL+path, nil)
	if err != nil {
		h.T.Fatalf("Failed to create request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return h.Do(req)
}

// Do executes an HTTP request and returns a Response wrapper
func (h *TestHarness) Do(req *http.Request) *Response {
	h.T.Helper()

	resp, err := h.Client.Do(req)
	if err != nil {
		h.T.Fatalf("Request failed: %v", err)
	}

	return &Response{
		T:        h.T,
		Response: resp,
	}
}

// GET makes a GET request
func (h *TestHarness) GET(path string) *Response {
	return h.Request(http.MethodGet, path, nil)
}

// Partial makes a GET request the way htmx does
func (h *TestHarness) Partial(path string) *Response {
	return h.Request(http.MethodGet, path, map[string]string{"HX-Request": "true"})
}

// Fragment reads a template file as the server would render it verbatim
func (h *TestHarness) Fragment(id string) string {
	h.T.Helper()
	data, err := os.ReadFile(filepath.Join(h.Config.Server.ViewsDir, id+h.Config.Templates.Extension))
	if err != nil {
		h.T.Fatalf("Failed to read template %s: %v", id, err)
	}
	return string(data)
}

// Response wraps an HTTP response with assertion helpers
type Response struct {
	T        *testing.T
	Response *http.Response
	body     []byte
	bodyRead bool
}

// Body returns the response body as bytes
func (r *Response) Body() []byte {
	r.T.Helper()
	if !r.bodyRead {
		var err error
		r.body, err = io.ReadAll(r.Response.Body)
		if err != nil {
			r.T.Fatalf("Failed to read response body: %v", err)
		}
		_ = r.Response.Body.Close()
		r.bodyRead = true
	}
	return r.body
}

// JSON unmarshals the response body into the given target
func (r *Response) JSON(target interface{}) *Response {
	r.T.Helper()
	if err := json.Unmarshal(r.Body(), target); err != nil {
		r.T.Fatalf("Failed to unmarshal response: %v\nBody: %s", err, string(r.Body()))
	}
	return r
}

// Status asserts the response status code
func (r *Response) Status(expected int) *Response {
	r.T.Helper()
	if r.Response.StatusCode != expected {
		r.T.Errorf("Expected status %d, got %d\nBody: %s", expected, r.Response.StatusCode, string(r.Body()))
	}
	return r
}

// Header returns the value of a response header
func (r *Response) Header(name string) string {
	return r.Response.Header.Get(name)
}

// ContentType asserts the media type of the response, ignoring parameters
func (r *Response) ContentType(expected string) *Response {
	r.T.Helper()
	got := strings.TrimSpace(strings.Split(r.Header("Content-Type"), ";")[0])
	if got != expected {
		r.T.Errorf("Expected content type %q, got %q", expected, r.Header("Content-Type"))
	}
	return r
}

// BodyContains asserts the response body contains a substring
func (r *Response) BodyContains(substr string) *Response {
	r.T.Helper()
	if !strings.Contains(string(r.Body()), substr) {
		r.T.Errorf("Expected body to contain %q\nBody: %s", substr, string(r.Body()))
	}
	return r
}

// BodyNotContains asserts the response body lacks a substring
func (r *Response) BodyNotContains(substr string) *Response {
	r.T.Helper()
	if strings.Contains(string(r.Body()), substr) {
		r.T.Errorf("Expected body not to contain %q\nBody: %s", substr, string(r.Body()))
	}
	return r
}

// BodyEquals asserts the response body equals exactly
func (r *Response) BodyEquals(expected string) *Response {
	r.T.Helper()
	if string(r.Body()) != expected {
		r.T.Errorf("Expected body:\n%s\nGot:\n%s", expected, string(r.Body()))
	}
	return r
}

// Pretty returns pretty-printed JSON for debugging
func (r *Response) Pretty() string {
	var v interface{}
	if err := json.Unmarshal(r.Body(), &v); err != nil {
		return string(r.Body())
	}
	pretty, _ := json.MarshalIndent(v, "", "  ")
	return string(pretty)
}

// Debug logs the response for debugging
func (r *Response) Debug() *Response {
	r.T.Logf("=== Response ===\nStatus: %d\nHeaders: %v\nBody:\n%s\n================",
		r.Response.StatusCode, r.Response.Header, r.Pretty())
	return r
}

// String describes the response for failure messages
func (r *Response) String() string {
	return fmt.Sprintf("%d %s", r.Response.StatusCode, r.Header("Content-Type"))
}
