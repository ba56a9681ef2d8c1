// Package modes resolves which optional pages and endpoints are enabled.
// The server can run as one of several variants:
// - base: index page and greeting fragment only
// - sample: adds the about page, htmx sub-pages and the guestbook API
// - demo: sample plus the click demo endpoint
// - all: everything (default)
package modes

import (
	"fmt"
	"strings"

	"github.com/sirosfoundation/go-dugong/pkg/config"
)

// Mode represents a feature preset
type Mode string

const (
	ModeAll    Mode = "all"
	ModeBase   Mode = "base"
	ModeSample Mode = "sample"
	ModeDemo   Mode = "demo"
)

// ValidModes lists all valid variants
var ValidModes = []Mode{ModeAll, ModeBase, ModeSample, ModeDemo}

// IsValid checks if a mode string is valid
func (m Mode) IsValid() bool {
	for _, valid := range ValidModes {
		if m == valid {
			return true
		}
	}
	return false
}

// ParseMode parses a variant name, the empty string selects ModeAll
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeAll, nil
	}
	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid variant %q, valid variants: %v", s, ValidModes)
	}
	return mode, nil
}

// Feature names a switchable group of routes
type Feature string

const (
	FeatureNone        Feature = ""
	FeatureAbout       Feature = "about"
	FeatureSubPages    Feature = "subpages"
	FeaturePersistence Feature = "persistence"
	FeatureDemo        Feature = "demo"
)

// Features is the resolved set of enabled features
type Features struct {
	About       bool
	SubPages    bool
	Persistence bool
	Demo        bool
}

// Preset returns the features a variant enables
func Preset(m Mode) Features {
	switch m {
	case ModeBase:
		return Features{}
	case ModeSample:
		return Features{About: true, SubPages: true, Persistence: true}
	default:
		return Features{About: true, SubPages: true, Persistence: true, Demo: true}
	}
}

// Resolve applies explicit overrides on top of the variant preset
func Resolve(m Mode, o config.FeatureOverrides) Features {
	f := Preset(m)
	if o.About != nil {
		f.About = *o.About
	}
	if o.Subpages != nil {
		f.SubPages = *o.Subpages
	}
	if o.Persistence != nil {
		f.Persistence = *o.Persistence
	}
	if o.Demo != nil {
		f.Demo = *o.Demo
	}
	return f
}

// Enabled reports whether a feature is on; FeatureNone is always on
func (f Features) Enabled(feature Feature) bool {
	switch feature {
	case FeatureNone:
		return true
	case FeatureAbout:
		return f.About
	case FeatureSubPages:
		return f.SubPages
	case FeaturePersistence:
		return f.Persistence
	case FeatureDemo:
		return f.Demo
	default:
		return false
	}
}

// Names lists the enabled features in a stable order
func (f Features) Names() []string {
	names := make([]string, 0, 4)
	for _, feature := range []Feature{FeatureAbout, FeatureSubPages, FeaturePersistence, FeatureDemo} {
		if f.Enabled(feature) {
			names = append(names, string(feature))
		}
	}
	return names
}
