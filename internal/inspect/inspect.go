// SPDX-License-Identifier: MPL-2.0

// Package inspect reads generated GeoJSON and TopoJSON files back to count
// their features, so a conversion can be checked for dropped geometries.
package inspect

import (
	"errors"
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/afero"
)

// DefaultMaxSize is the largest file Count parses. Full-detail national
// layers can reach hundreds of megabytes and are not worth decoding twice.
const DefaultMaxSize = 256 << 20

// Format selects the document shape to count.
const (
	GeoJSON Format = iota
	TopoJSON
)

var (
	// ErrTooLarge is returned for files above the inspector's size limit.
	ErrTooLarge = errors.New("file too large to inspect")

	featurePaths = map[Format]jp.Expr{
		GeoJSON:  jp.MustParseString("$.features[*]"),
		TopoJSON: jp.MustParseString("$.objects.*.geometries[*]"),
	}
)

type (
	// Format is an output document shape.
	Format int

	// Option configures an Inspector.
	Option func(*Inspector)

	// Inspector counts features in output files.
	Inspector struct {
		fs      afero.Fs
		maxSize int64
	}
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case GeoJSON:
		return "GeoJSON"
	case TopoJSON:
		return "TopoJSON"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// WithFs sets the filesystem files are read from.
func WithFs(fsys afero.Fs) Option {
	return func(i *Inspector) {
		i.fs = fsys
	}
}

// WithMaxSize sets the size limit. Zero or negative disables it.
func WithMaxSize(n int64) Option {
	return func(i *Inspector) {
		i.maxSize = n
	}
}

// New creates an Inspector reading from the OS filesystem.
func New(opts ...Option) *Inspector {
	i := &Inspector{
		fs:      afero.NewOsFs(),
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Count returns the number of features in the file at path.
func (i *Inspector) Count(path string, format Format) (int, error) {
	expr, ok := featurePaths[format]
	if !ok {
		return 0, fmt.Errorf("unsupported format %s", format)
	}

	info, err := i.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	if i.maxSize > 0 && info.Size() > i.maxSize {
		return 0, fmt.Errorf("%s: %w (%d bytes)", path, ErrTooLarge, info.Size())
	}

	data, err := afero.ReadFile(i.fs, path)
	if err != nil {
		return 0, err
	}
	doc, err := oj.Parse(data)
	if err != nil {
		return 0, fmt.Errorf("parsing %s as %s: %w", path, format, err)
	}
	return len(expr.Get(doc)), nil
}
