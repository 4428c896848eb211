// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"path/filepath"

	"github.com/decoupage/decoupage/internal/cueutil"
	"github.com/decoupage/decoupage/internal/issue"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"
	"github.com/spf13/afero"
)

// DefaultConfigFile is read when no --config flag is given.
const DefaultConfigFile = "config.json"

//go:embed config_schema.cue
var configSchema []byte

// loadWithOptions reads, validates and resolves one configuration document.
func loadWithOptions(ctx context.Context, fsys afero.Fs, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	path := opts.ConfigFilePath
	if path == "" {
		path = DefaultConfigFile
	}

	exists, err := afero.Exists(fsys, path)
	if err != nil || !exists {
		cause := fmt.Errorf("%w: config file not found: %s", issue.ErrConfiguration, path)
		if err != nil {
			cause = fmt.Errorf("%w: %w", issue.ErrConfiguration, err)
		}
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Pass --config with the path to your layer list").
			WithIssue(issue.ConfigNotFoundId).
			Wrap(cause).
			BuildError()
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Check that the file is readable").
			WithIssue(issue.ConfigNotFoundId).
			Wrap(fmt.Errorf("%w: %w", issue.ErrConfiguration, err)).
			BuildError()
	}

	cfg, err := cueutil.Decode[Config](configSchema, data, "#Config", cueutil.WithFilename(path))
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse configuration").
			WithResource(path).
			WithSuggestion("Check that the file contains valid JSON (or CUE)").
			WithSuggestion("Verify field types: directories and options are objects, layers is a list").
			WithIssue(issue.ConfigParseErrorId).
			Wrap(fmt.Errorf("%w: %w", issue.ErrConfiguration, err)).
			BuildError()
	}

	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = filepath.Dir(path)
	}
	cfg.Directories = cfg.Directories.resolve(baseDir)

	return cfg, nil
}

// resolve fills defaults and anchors relative paths at baseDir.
func (d Directories) resolve(baseDir string) Directories {
	abs := func(p, fallback string) string {
		if p == "" {
			p = fallback
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(baseDir, p)
	}

	return Directories{
		Sources:  abs(d.Sources, DefaultSourcesDir),
		GeoJSON:  abs(d.GeoJSON, DefaultGeoJSONDir),
		TopoJSON: abs(d.TopoJSON, DefaultTopoJSONDir),
	}
}

// Ensure creates the three directories if they are missing. It is idempotent.
func (d Directories) Ensure(fsys afero.Fs) error {
	for _, dir := range []string{d.Sources, d.GeoJSON, d.TopoJSON} {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ArchivePath is where a downloaded archive is stored.
func (d Directories) ArchivePath(fileName string) string {
	return filepath.Join(d.Sources, fileName)
}

// LayerSourceDir is where a layer's archive is extracted.
func (d Directories) LayerSourceDir(layer string) string {
	return filepath.Join(d.Sources, layer)
}

// GeoJSONPath is the intermediate output for an output stem.
func (d Directories) GeoJSONPath(outputName string) string {
	return filepath.Join(d.GeoJSON, outputName+".json")
}

// TopoJSONPath is the final output for an output stem.
func (d Directories) TopoJSONPath(outputName string) string {
	return filepath.Join(d.TopoJSON, outputName+".json")
}

// GenerateCUE renders a resolved configuration as formatted CUE.
func GenerateCUE(cfg *Config) (string, error) {
	v := cuecontext.New().Encode(cfg)
	if v.Err() != nil {
		return "", fmt.Errorf("failed to encode config: %w", v.Err())
	}

	out, err := format.Node(v.Syntax())
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}
	return string(out), nil
}
