// SPDX-License-Identifier: MPL-2.0

package convert

import (
	"github.com/decoupage/decoupage/internal/config"
	"github.com/decoupage/decoupage/internal/mapshaper"
)

type (
	// Step is the conversion of one simplification profile.
	Step struct {
		// OutputName is the file stem shared by both outputs.
		OutputName string
		// Label describes the profile's detail level, e.g. "2%".
		Label string
		// GeoJSONPath is the intermediate output.
		GeoJSONPath string
		// TopoJSONPath is the final output.
		TopoJSONPath string
		// Transform is the first-stage conversion.
		Transform mapshaper.Transform
	}

	// Plan lists every step of one layer in declaration order.
	Plan struct {
		Layer     string
		Shapefile string
		Steps     []Step
	}
)

// BuildPlan computes the conversion steps of a layer without touching the
// filesystem. shapefile is the located input path.
func BuildPlan(dirs config.Directories, opts config.Options, layer *config.Layer, shapefile string) Plan {
	plan := Plan{
		Layer:     layer.Name,
		Shapefile: shapefile,
		Steps:     make([]Step, 0, len(layer.Simplifications)),
	}
	for i := range layer.Simplifications {
		p := &layer.Simplifications[i]
		name := p.OutputName(layer)
		plan.Steps = append(plan.Steps, Step{
			OutputName:   name,
			Label:        p.DetailLabel(),
			GeoJSONPath:  dirs.GeoJSONPath(name),
			TopoJSONPath: dirs.TopoJSONPath(name),
			Transform:    BuildTransform(opts, layer, p),
		})
	}
	return plan
}

// DuplicateOutputs returns the output names shared by more than one step,
// in first-seen order. Later steps overwrite the files of earlier ones.
func (p Plan) DuplicateOutputs() []string {
	seen := make(map[string]int, len(p.Steps))
	var dups []string
	for _, s := range p.Steps {
		seen[s.OutputName]++
		if seen[s.OutputName] == 2 {
			dups = append(dups, s.OutputName)
		}
	}
	return dups
}

// BuildTransform resolves a profile against its layer and the global options.
// Simplification is only requested below full detail; the method and
// keep-shapes options only apply when it is.
func BuildTransform(opts config.Options, layer *config.Layer, p *config.Profile) mapshaper.Transform {
	t := mapshaper.Transform{
		Snap:       opts.Snap,
		Projection: layer.Projection,
		Fields:     config.EffectiveProperties(p, layer),
	}
	if p.Simplified() {
		t.Simplify = &mapshaper.Simplify{
			Percent:    p.DetailLevel(),
			Method:     opts.Method,
			KeepShapes: opts.KeepShapes,
		}
	}
	if precision, ok := config.EffectivePrecision(p, layer); ok {
		t.Precision = &precision
	}
	return t
}
