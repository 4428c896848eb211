// SPDX-License-Identifier: MPL-2.0

package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/decoupage/decoupage/internal/config"
	"github.com/decoupage/decoupage/internal/inspect"
	"github.com/decoupage/decoupage/internal/issue"
	"github.com/decoupage/decoupage/internal/locate"
	"github.com/decoupage/decoupage/internal/mapshaper"
	"github.com/decoupage/decoupage/internal/report"

	"github.com/spf13/afero"
)

// ErrProfilesFailed is returned by ConvertLayer when at least one profile
// failed. The remaining profiles were still converted.
var ErrProfilesFailed = errors.New("one or more simplification profiles failed")

type (
	// GeometryTool performs the two conversions of a profile.
	GeometryTool interface {
		ToGeoFormat(ctx context.Context, input, output string, t mapshaper.Transform) (mapshaper.Output, error)
		ToTopologyFormat(ctx context.Context, input, output string) (mapshaper.Output, error)
	}

	// FeatureCounter counts the features of a written file.
	FeatureCounter interface {
		Count(path string, format inspect.Format) (int, error)
	}

	// StageOption configures a Stage.
	StageOption func(*Stage)

	// Stage converts located shapefiles into GeoJSON then TopoJSON.
	Stage struct {
		dirs     config.Directories
		opts     config.Options
		tool     GeometryTool
		counter  FeatureCounter
		reporter report.Reporter
		fs       afero.Fs
	}

	// ProfileResult is the outcome of one simplification profile.
	ProfileResult struct {
		Step     Step
		GeoJSON  mapshaper.Output
		TopoJSON mapshaper.Output
		// Ratio is 1 - TopoJSON.Size/GeoJSON.Size.
		Ratio float64
		Err   error
	}

	// LayerResult is the outcome of ConvertLayer.
	LayerResult struct {
		Skipped   bool
		Shapefile string
		Profiles  []ProfileResult
	}
)

// WithFs sets the filesystem used to create directories and locate inputs.
func WithFs(fsys afero.Fs) StageOption {
	return func(s *Stage) {
		s.fs = fsys
	}
}

// WithFeatureCounter enables feature-count checks after each profile.
func WithFeatureCounter(c FeatureCounter) StageOption {
	return func(s *Stage) {
		s.counter = c
	}
}

// NewStage creates a conversion stage.
func NewStage(dirs config.Directories, opts config.Options, tool GeometryTool, r report.Reporter, stageOpts ...StageOption) *Stage {
	s := &Stage{
		dirs:     dirs,
		opts:     opts,
		tool:     tool,
		reporter: r,
		fs:       afero.NewOsFs(),
	}
	for _, opt := range stageOpts {
		opt(s)
	}
	return s
}

// Failed returns the number of failed profiles.
func (r LayerResult) Failed() int {
	n := 0
	for _, p := range r.Profiles {
		if p.Err != nil {
			n++
		}
	}
	return n
}

// Ratio computes the size reduction of the topology encoding. An empty
// intermediate file yields 0.
func Ratio(intermediate, final int64) float64 {
	if intermediate <= 0 {
		return 0
	}
	return 1 - float64(final)/float64(intermediate)
}

// Locate finds the layer's shapefile under its extraction directory.
func Locate(fsys afero.Fs, dirs config.Directories, layer *config.Layer) (string, error) {
	name, err := layer.ShapefileName()
	if err != nil {
		return "", err
	}

	root := dirs.LayerSourceDir(layer.Name)
	if p, ok := locate.Find(fsys, root, name); ok {
		return p, nil
	}
	return "", issue.NewErrorContext().
		WithOperation("locate shapefile").
		WithResource(name).
		WithSuggestion(fmt.Sprintf("Run 'decoupage fetch' to download and extract %s", layer.Name)).
		WithSuggestion("Check source.shapefile against the archive contents").
		WithIssue(issue.ShapefileNotFoundId).
		Wrap(fmt.Errorf("%w: %s not found under %s", issue.ErrLocate, name, root)).
		BuildError()
}

// ConvertLayer runs every profile of layer in order. A disabled layer is
// skipped unless explicit is set. Profile failures are reported and do not
// stop the remaining profiles; they surface as ErrProfilesFailed.
func (s *Stage) ConvertLayer(ctx context.Context, layer *config.Layer, explicit bool) (LayerResult, error) {
	if !layer.Enabled && !explicit {
		s.reporter.Skip("%s: disabled", layer.Name)
		return LayerResult{Skipped: true}, nil
	}

	if err := s.dirs.Ensure(s.fs); err != nil {
		return LayerResult{}, fmt.Errorf("creating output directories: %w", err)
	}

	shp, err := Locate(s.fs, s.dirs, layer)
	if err != nil {
		return LayerResult{}, err
	}
	s.reporter.Step("source: %s", shp)

	res := LayerResult{Shapefile: shp}
	plan := BuildPlan(s.dirs, s.opts, layer, shp)
	for _, name := range plan.DuplicateOutputs() {
		s.reporter.Warn("%s: several profiles write %s, the last one wins", layer.Name, name)
	}
	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		pr := s.convertProfile(ctx, shp, step)
		res.Profiles = append(res.Profiles, pr)
		if pr.Err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			s.reporter.Failure("%s: %v", step.OutputName, pr.Err)
		}
	}

	if n := res.Failed(); n > 0 {
		return res, fmt.Errorf("%w: %d of %d", ErrProfilesFailed, n, len(res.Profiles))
	}
	return res, nil
}

func (s *Stage) convertProfile(ctx context.Context, shp string, step Step) ProfileResult {
	pr := ProfileResult{Step: step}
	s.reporter.Step("%s (%s) → %s", step.OutputName, step.Label, filepath.Base(step.GeoJSONPath))
	geo, err := s.tool.ToGeoFormat(ctx, shp, step.GeoJSONPath, step.Transform)
	if err != nil {
		pr.Err = profileError("write GeoJSON", step.GeoJSONPath, err)
		return pr
	}
	pr.GeoJSON = geo

	topo, err := s.tool.ToTopologyFormat(ctx, step.GeoJSONPath, step.TopoJSONPath)
	if err != nil {
		pr.Err = profileError("write TopoJSON", step.TopoJSONPath, err)
		return pr
	}
	pr.TopoJSON = topo
	pr.Ratio = Ratio(geo.Size, topo.Size)

	s.reporter.Success("%s: GeoJSON %s, TopoJSON %s (%s)",
		step.OutputName, report.Bytes(geo.Size), report.Bytes(topo.Size), report.Ratio(pr.Ratio))
	s.checkFeatures(step, geo, topo)
	return pr
}

// checkFeatures compares feature counts of both outputs. Unreadable files are
// logged and otherwise ignored.
func (s *Stage) checkFeatures(step Step, geo, topo mapshaper.Output) {
	if s.counter == nil {
		return
	}
	geoCount, err := s.counter.Count(geo.Path, inspect.GeoJSON)
	if err != nil {
		slog.Debug("skipping feature count", "file", geo.Path, "error", err)
		return
	}
	topoCount, err := s.counter.Count(topo.Path, inspect.TopoJSON)
	if err != nil {
		slog.Debug("skipping feature count", "file", topo.Path, "error", err)
		return
	}
	if geoCount != topoCount {
		s.reporter.Warn("%s: %d features in GeoJSON but %d in TopoJSON", step.OutputName, geoCount, topoCount)
		return
	}
	slog.Debug("feature count", "output", step.OutputName, "features", geoCount)
}

func profileError(op, output string, err error) error {
	return issue.NewErrorContext().
		WithOperation(op).
		WithResource(output).
		WithSuggestion("Run with --verbose to see the exact mapshaper command").
		WithIssue(issue.ToolInvocationFailedId).
		Wrap(err).
		BuildError()
}
