// Package stylesheet compiles the preprocessor stylesheet into the CSS file
// served by the static asset server.
package stylesheet

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-dugong/pkg/config"
)

const cssMediaType = "text/css"

// Builder compiles the source stylesheet and writes the result atomically.
// Done is closed once the first build finished, successful or not.
type Builder struct {
	fs          afero.Fs
	compiler    Compiler
	source      string
	destination string
	minifier    *minify.M
	logger      *zap.Logger

	done     chan struct{}
	doneOnce sync.Once

	mu      sync.RWMutex
	err     error
	builtAt time.Time
}

// NewBuilder creates a Builder; minification is skipped when cfg.Minify is false
func NewBuilder(fs afero.Fs, compiler Compiler, cfg *config.StylesConfig, logger *zap.Logger) *Builder {
	var m *minify.M
	if cfg.Minify {
		m = minify.New()
		m.AddFunc(cssMediaType, css.Minify)
	}

	return &Builder{
		fs:          fs,
		compiler:    compiler,
		source:      cfg.Source,
		destination: cfg.Destination,
		minifier:    m,
		logger:      logger.Named("stylesheet"),
		done:        make(chan struct{}),
	}
}

// Build compiles the stylesheet once. Errors are logged and returned.
func (b *Builder) Build(ctx context.Context) error {
	start := time.Now()
	err := b.build(ctx)

	b.mu.Lock()
	b.err = err
	if err == nil {
		b.builtAt = time.Now()
	}
	b.mu.Unlock()
	b.doneOnce.Do(func() { close(b.done) })

	if err != nil {
		b.logger.Error("Failed to compile stylesheet",
			zap.String("source", b.source),
			zap.String("compiler", b.compiler.Name()),
			zap.Error(err),
		)
		return err
	}

	b.logger.Info("Stylesheet compiled",
		zap.String("source", b.source),
		zap.String("destination", b.destination),
		zap.String("compiler", b.compiler.Name()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Start runs Build in the background
func (b *Builder) Start(ctx context.Context) {
	go func() {
		_ = b.Build(ctx)
	}()
}

// Done is closed after the first build attempt
func (b *Builder) Done() <-chan struct{} {
	return b.done
}

// Err returns the result of the most recent build
func (b *Builder) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

// BuiltAt returns when the last successful build finished
func (b *Builder) BuiltAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.builtAt
}

// Destination returns the path of the compiled file
func (b *Builder) Destination() string {
	return b.destination
}

func (b *Builder) build(ctx context.Context) error {
	src, err := afero.ReadFile(b.fs, b.source)
	if err != nil {
		return fmt.Errorf("failed to read stylesheet source: %w", err)
	}

	out, err := b.compiler.Compile(ctx, b.source, src)
	if err != nil {
		return err
	}

	if b.minifier != nil {
		var buf bytes.Buffer
		if err := b.minifier.Minify(cssMediaType, &buf, bytes.NewBufferString(out)); err != nil {
			return fmt.Errorf("%w: minify: %v", ErrCompile, err)
		}
		out = buf.String()
	}

	return b.write([]byte(out))
}

// write replaces the destination via a temp file so readers never see a partial file
func (b *Builder) write(data []byte) error {
	dir := filepath.Dir(b.destination)
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(b.fs, dir, ".styles-*.css")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("failed to write stylesheet: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("failed to write stylesheet: %w", err)
	}

	if err := b.fs.Chmod(tmpName, 0o644); err != nil && !os.IsNotExist(err) {
		b.logger.Debug("Could not set stylesheet permissions", zap.Error(err))
	}

	if err := b.fs.Rename(tmpName, b.destination); err != nil {
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("failed to move stylesheet into place: %w", err)
	}

	return nil
}
