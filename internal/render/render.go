// Package render provides the html/template renderer used by gin.
//
// Template ids are paths below the views directory without the file
// extension, e.g. "pages/index" for views/pages/index.html. Every
// template is parsed together with the files in views/partials.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	ginrender "github.com/gin-gonic/gin/render"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-dugong/pkg/config"
)

const partialsDir = "partials"

// ErrTemplateNotFound is returned for ids without a template file
var ErrTemplateNotFound = errors.New("template not found")

var htmlContentType = []string{"text/html; charset=utf-8"}

// Renderer loads and caches templates from a views filesystem
type Renderer struct {
	fs     afero.Fs
	ext    string
	reload bool
	funcs  template.FuncMap
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// New creates a Renderer reading templates from views
func New(views afero.Fs, cfg *config.TemplatesConfig, logger *zap.Logger) *Renderer {
	ext := cfg.Extension
	if ext == "" {
		ext = ".html"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	return &Renderer{
		fs:     views,
		ext:    ext,
		reload: cfg.Reload,
		funcs: template.FuncMap{
			"year": func() int { return time.Now().Year() },
		},
		logger: logger.Named("render"),
		cache:  make(map[string]*template.Template),
	}
}

// NewFromDir creates a Renderer for a views directory on disk
func NewFromDir(dir string, cfg *config.TemplatesConfig, logger *zap.Logger) *Renderer {
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), cfg, logger)
}

// Instance implements gin's render.HTMLRender
func (r *Renderer) Instance(name string, data any) ginrender.Render {
	return &page{renderer: r, name: name, data: data}
}

// Lookup returns the compiled template for id
func (r *Renderer) Lookup(id string) (*template.Template, error) {
	id, err := cleanID(id)
	if err != nil {
		return nil, err
	}

	if !r.reload {
		r.mu.RLock()
		tpl, ok := r.cache[id]
		r.mu.RUnlock()
		if ok {
			return tpl, nil
		}
	}

	tpl, err := r.parse(id)
	if err != nil {
		return nil, err
	}

	if !r.reload {
		r.mu.Lock()
		r.cache[id] = tpl
		r.mu.Unlock()
	}
	return tpl, nil
}

// Execute renders id into a buffer and copies it to w only on success
func (r *Renderer) Execute(w io.Writer, id string, data any) error {
	tpl, err := r.Lookup(id)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, tpl.Name(), data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", id, err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// Preload parses every template found in dirs so errors show up at startup
func (r *Renderer) Preload(dirs ...string) ([]string, error) {
	var ids []string
	for _, dir := range dirs {
		matches, err := afero.Glob(r.fs, path.Join(dir, "*"+r.ext))
		if err != nil {
			return ids, err
		}
		for _, m := range matches {
			id := strings.TrimSuffix(path.Clean(strings.ReplaceAll(m, "\\", "/")), r.ext)
			if _, err := r.Lookup(id); err != nil {
				return ids, err
			}
			ids = append(ids, id)
		}
	}
	r.logger.Debug("Templates loaded", zap.Strings("templates", ids))
	return ids, nil
}

func (r *Renderer) parse(id string) (*template.Template, error) {
	content, err := afero.ReadFile(r.fs, id+r.ext)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
		}
		return nil, fmt.Errorf("failed to read template %s: %w", id, err)
	}

	tpl, err := r.partials()
	if err != nil {
		return nil, err
	}

	tpl, err = tpl.New(id).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", id, err)
	}
	return tpl, nil
}

func (r *Renderer) partials() (*template.Template, error) {
	partials := template.New("").Funcs(r.funcs)

	matches, err := afero.Glob(r.fs, path.Join(partialsDir, "*"+r.ext))
	if err != nil {
		return nil, err
	}

	for _, m := range matches {
		content, err := afero.ReadFile(r.fs, m)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(path.Base(strings.ReplaceAll(m, "\\", "/")), r.ext)
		if _, err := partials.New(path.Join(partialsDir, name)).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse partial %s: %w", name, err)
		}
	}
	return partials, nil
}

func cleanID(id string) (string, error) {
	cleaned := path.Clean("/" + id)[1:]
	if cleaned == "" || cleaned != id {
		return "", fmt.Errorf("%w: invalid template id %q", ErrTemplateNotFound, id)
	}
	return cleaned, nil
}

// page is the gin render.Render for a single template
type page struct {
	renderer *Renderer
	name     string
	data     any
}

func (p *page) Render(w http.ResponseWriter) error {
	p.WriteContentType(w)

	if err := p.renderer.Execute(w, p.name, p.data); err != nil {
		p.renderer.logger.Error("Failed to render template",
			zap.String("template", p.name), zap.Error(err))
		// nothing was written yet, so the status can still change
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(http.StatusText(http.StatusInternalServerError)))
		return err
	}
	return nil
}

func (p *page) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = htmlContentType
	}
}
