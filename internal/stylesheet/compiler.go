package stylesheet

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bep/godartsass/v2"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-dugong/pkg/config"
)

// DefaultDartSassBinary is looked up on PATH when no binary is configured
const DefaultDartSassBinary = "sass"

// ErrCompile is returned when the source cannot be compiled
var ErrCompile = errors.New("stylesheet compile failed")

// Compiler turns a stylesheet source into CSS
type Compiler interface {
	// Compile compiles src; path is used for syntax detection and relative imports
	Compile(ctx context.Context, path string, src []byte) (string, error)
	// Name identifies the compiler in logs
	Name() string
	// Close releases the compiler's resources
	Close() error
}

// NewCompiler picks the compiler named by the configuration
func NewCompiler(cfg *config.StylesConfig, logger *zap.Logger) (Compiler, error) {
	binary := cfg.DartSassBinary
	if binary == "" {
		binary = DefaultDartSassBinary
	}

	switch cfg.Compiler {
	case config.CompilerDartSass:
		return NewDartSass(binary), nil
	case config.CompilerCSS:
		return PlainCSS{}, nil
	case config.CompilerAuto, "":
		if path, err := exec.LookPath(binary); err == nil {
			logger.Debug("Using Dart Sass", zap.String("binary", path))
			return NewDartSass(path), nil
		}
		logger.Warn("Dart Sass not found, only plain CSS sources can be built",
			zap.String("binary", binary),
			zap.String("source", cfg.Source))
		return PlainCSS{}, nil
	default:
		return nil, fmt.Errorf("unknown stylesheet compiler: %s", cfg.Compiler)
	}
}

// DartSass compiles SCSS/Sass with the embedded Dart Sass protocol.
// The transpiler process is started on first use.
type DartSass struct {
	binary string

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewDartSass creates a compiler driving the given Dart Sass binary
func NewDartSass(binary string) *DartSass {
	return &DartSass{binary: binary}
}

func (d *DartSass) Name() string { return "dartsass" }

func (d *DartSass) Compile(ctx context.Context, path string, src []byte) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if d.transpiler == nil {
		t, err := godartsass.Start(godartsass.Options{
			DartSassEmbeddedFilename: d.binary,
		})
		if err != nil {
			return "", fmt.Errorf("%w: start dart sass: %v", ErrCompile, err)
		}
		d.transpiler = t
	}

	result, err := d.transpiler.Execute(godartsass.Args{
		Source:       string(src),
		URL:          "file://" + filepath.ToSlash(absPath(path)),
		IncludePaths: []string{filepath.Dir(path)},
		SourceSyntax: syntaxFor(path),
		OutputStyle:  godartsass.OutputStyleExpanded,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompile, err)
	}

	return result.CSS, nil
}

func (d *DartSass) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transpiler == nil {
		return nil
	}
	err := d.transpiler.Close()
	d.transpiler = nil
	return err
}

// PlainCSS passes .css sources through unchanged and rejects anything else
type PlainCSS struct{}

func (PlainCSS) Name() string { return "css" }
func (PlainCSS) Close() error { return nil }

func (PlainCSS) Compile(ctx context.Context, path string, src []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if syntaxFor(path) != godartsass.SourceSyntaxCSS {
		return "", fmt.Errorf("%w: %s is not plain CSS, install Dart Sass or set styles.compiler to dartsass", ErrCompile, path)
	}
	return string(src), nil
}

func syntaxFor(path string) godartsass.SourceSyntax {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sass":
		return godartsass.SourceSyntaxSASS
	case ".css":
		return godartsass.SourceSyntaxCSS
	default:
		return godartsass.SourceSyntaxSCSS
	}
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
