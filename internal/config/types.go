// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/decoupage/decoupage/internal/issue"
)

const (
	// FullDetail is the simplification level that keeps every vertex.
	FullDetail = 100

	// DefaultSourcesDir holds downloaded archives and extracted trees.
	DefaultSourcesDir = "sources"
	// DefaultGeoJSONDir holds the intermediate GeoJSON files.
	DefaultGeoJSONDir = "geojson"
	// DefaultTopoJSONDir holds the final TopoJSON files.
	DefaultTopoJSONDir = "topojson"
)

var (
	// ErrNoURL is returned when a layer source declares neither urls nor url.
	ErrNoURL = errors.New("no source URL configured")
	// ErrNoArchiveName is returned when no archive file name can be derived.
	ErrNoArchiveName = errors.New("cannot determine archive file name")
	// ErrNoShapefile is returned when a layer source does not name its geometry file.
	ErrNoShapefile = errors.New("no shapefile name configured")
)

type (
	// Config is the parsed layer configuration document. It is built once per
	// process and passed explicitly to every stage.
	Config struct {
		Directories Directories `json:"directories"`
		Options     Options     `json:"options"`
		Layers      []Layer     `json:"layers"`
	}

	// Directories are the three filesystem roots the pipeline works in.
	Directories struct {
		Sources  string `json:"sources"`
		GeoJSON  string `json:"geojson"`
		TopoJSON string `json:"topojson"`
	}

	// Options are global geometry-tool settings shared by every layer.
	Options struct {
		// Snap enables vertex snapping before simplification.
		Snap bool `json:"snap"`
		// Method is the simplification algorithm (e.g. "visvalingam", "dp").
		Method string `json:"method"`
		// KeepShapes prevents simplification from removing whole features.
		KeepShapes bool `json:"keepShapes"`
	}

	// Layer is one administrative boundary dataset.
	Layer struct {
		Name       string `json:"name"`
		Label      string `json:"label"`
		Enabled    bool   `json:"enabled"`
		Source     Source `json:"source"`
		Projection string `json:"projection"`
		// Precision is the default coordinate rounding; nil means none.
		Precision *float64 `json:"precision"`
		// Properties is the default attribute list to retain; nil or empty keeps all.
		Properties      *[]string `json:"properties"`
		Simplifications []Profile `json:"simplifications"`
	}

	// Source describes where a layer's data comes from.
	Source struct {
		// URL is the legacy single-mirror form of URLs.
		URL  string   `json:"url"`
		URLs []string `json:"urls"`
		// FileName overrides the archive name derived from the first URL.
		FileName string `json:"fileName"`
		// Archive marks the artifact as needing extraction.
		Archive bool `json:"archive"`
		// Shapefile is the geometry file name to locate in the extracted tree.
		Shapefile string `json:"shapefile"`
	}

	// Profile is one output variant of a layer.
	Profile struct {
		// Level is the percentage of detail retained. 100 or more, or no
		// level at all, disables simplification.
		Level  *float64 `json:"level"`
		Suffix string   `json:"suffix"`
		// Precision overrides the layer precision when set.
		Precision *float64 `json:"precision"`
		// Properties overrides the layer list when non-nil, including an
		// explicit empty list.
		Properties *[]string `json:"properties"`
	}
)

// DisplayName returns the label, falling back to the name.
func (l *Layer) DisplayName() string {
	if l.Label != "" {
		return l.Label
	}
	return l.Name
}

// URLs returns the ordered candidate URLs: urls, else [url], else nil.
func (l *Layer) URLs() []string {
	if len(l.Source.URLs) > 0 {
		return l.Source.URLs
	}
	if l.Source.URL != "" {
		return []string{l.Source.URL}
	}
	return nil
}

// ArchiveName returns the explicit file name or the base name of the first
// URL's path. Query strings and fragments are ignored.
func (l *Layer) ArchiveName() (string, error) {
	if l.Source.FileName != "" {
		return l.Source.FileName, nil
	}

	urls := l.URLs()
	if len(urls) == 0 {
		return "", l.resolutionError(ErrNoArchiveName, "Set source.fileName or source.urls")
	}

	p := urls[0]
	if u, err := url.Parse(urls[0]); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" || base == "" {
		return "", l.resolutionError(
			fmt.Errorf("%w from %q", ErrNoArchiveName, urls[0]),
			"Set source.fileName explicitly when the URL has no file component",
		)
	}
	return base, nil
}

// ValidateSource checks the fields the fetch stage needs.
func (l *Layer) ValidateSource() error {
	if len(l.URLs()) == 0 {
		return l.resolutionError(ErrNoURL, "Add source.urls (or the legacy source.url) to the layer")
	}
	_, err := l.ArchiveName()
	return err
}

// ShapefileName returns the geometry file to locate, or a resolution error.
func (l *Layer) ShapefileName() (string, error) {
	if strings.TrimSpace(l.Source.Shapefile) == "" {
		return "", l.resolutionError(ErrNoShapefile, "Set source.shapefile to the .shp name inside the archive")
	}
	return l.Source.Shapefile, nil
}

func (l *Layer) resolutionError(err error, suggestion string) error {
	return issue.NewErrorContext().
		WithOperation("resolve layer source").
		WithResource(l.Name).
		WithSuggestion(suggestion).
		Wrap(fmt.Errorf("%w: %w", issue.ErrResolution, err)).
		BuildError()
}

// OutputName is the output file stem: layer name followed by the suffix.
func (p *Profile) OutputName(l *Layer) string {
	return l.Name + p.Suffix
}

// DetailLevel returns the level, or FullDetail when none is set.
func (p *Profile) DetailLevel() float64 {
	if p.Level == nil {
		return FullDetail
	}
	return *p.Level
}

// Simplified reports whether the profile drops detail.
func (p *Profile) Simplified() bool {
	return p.DetailLevel() < FullDetail
}

// DetailLabel describes the level for humans, e.g. "full detail" or "2%".
func (p *Profile) DetailLabel() string {
	if !p.Simplified() {
		return "full detail"
	}
	return fmt.Sprintf("%g%%", p.DetailLevel())
}

// EffectivePrecision resolves coordinate precision: the profile value when
// set, else the layer value when set. ok is false when neither is set.
func EffectivePrecision(p *Profile, l *Layer) (precision float64, ok bool) {
	if p.Precision != nil {
		return *p.Precision, true
	}
	if l.Precision != nil {
		return *l.Precision, true
	}
	return 0, false
}

// EffectiveProperties resolves the attribute list: the profile list when
// present (even if empty), else the layer list, else nil. An empty result
// means every attribute is retained.
func EffectiveProperties(p *Profile, l *Layer) []string {
	if p.Properties != nil {
		return *p.Properties
	}
	if l.Properties != nil {
		return *l.Properties
	}
	return nil
}

// LayerNames returns the declared layer names in order.
func (c *Config) LayerNames() []string {
	names := make([]string, 0, len(c.Layers))
	for i := range c.Layers {
		names = append(names, c.Layers[i].Name)
	}
	return names
}

// Layer returns the layer with the given name.
func (c *Config) Layer(name string) (*Layer, bool) {
	for i := range c.Layers {
		if c.Layers[i].Name == name {
			return &c.Layers[i], true
		}
	}
	return nil, false
}
