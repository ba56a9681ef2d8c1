// Package static serves files below the public directory for requests no
// route matched.
package static

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const indexFile = "index.html"

// Gate signals when a generated asset is ready to be served
type Gate interface {
	Done() <-chan struct{}
	Err() error
}

// Server is a gin fallback handler serving an afero filesystem
type Server struct {
	fs     afero.Fs
	prefix string
	logger *zap.Logger

	gatedPath string
	gate      Gate
}

// New creates a Server for root mounted at prefix
func New(root afero.Fs, prefix string, logger *zap.Logger) *Server {
	if prefix == "" {
		prefix = "/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Server{
		fs:     root,
		prefix: prefix,
		logger: logger.Named("static"),
	}
}

// NewFromDir creates a Server for a directory on disk
func NewFromDir(dir, prefix string, logger *zap.Logger) *Server {
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), prefix, logger)
}

// Gated holds requests for the file at name (relative to the root)
// until gate is done
func (s *Server) Gated(name string, gate Gate) *Server {
	s.gatedPath = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
	s.gate = gate
	return s
}

// Handler returns the gin handler, meant for NoRoute
func (s *Server) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			notFound(c)
			return
		}

		name, ok := s.resolve(c.Request.URL.Path)
		if !ok {
			notFound(c)
			return
		}

		if s.gate != nil && name == s.gatedPath {
			select {
			case <-s.gate.Done():
			case <-c.Request.Context().Done():
				c.AbortWithStatus(http.StatusServiceUnavailable)
				return
			}
		}

		s.serve(c, name)
	}
}

func (s *Server) serve(c *gin.Context, name string) {
	info, err := s.fs.Stat(name)
	if err == nil && info.IsDir() {
		name = path.Join(name, indexFile)
		info, err = s.fs.Stat(name)
	}
	if err != nil || info.IsDir() {
		notFound(c)
		return
	}

	f, err := s.fs.Open(name)
	if err != nil {
		s.logger.Error("Failed to open static file", zap.String("file", name), zap.Error(err))
		notFound(c)
		return
	}
	defer func() { _ = f.Close() }()

	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

// resolve maps a URL path to a clean relative file name
func (s *Server) resolve(urlPath string) (string, bool) {
	if !strings.HasPrefix(urlPath, s.prefix) && urlPath+"/" != s.prefix {
		return "", false
	}
	rel := strings.TrimPrefix(urlPath, strings.TrimSuffix(s.prefix, "/"))
	name := strings.TrimPrefix(path.Clean("/"+rel), "/")
	if name == "" {
		name = indexFile
	}
	return name, true
}

// AssetPath returns destination relative to the static root, or false
// when the file lies outside it
func AssetPath(staticRoot, destination string) (string, bool) {
	rel, err := filepath.Rel(staticRoot, destination)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func notFound(c *gin.Context) {
	c.String(http.StatusNotFound, "404 page not found")
}
