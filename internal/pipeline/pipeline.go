// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs the fetch and convert stages over the configured
// layers, one layer at a time. A failing layer is reported and counted; the
// next layer still runs. Only configuration errors and cancellation stop a run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/decoupage/decoupage/internal/config"
	"github.com/decoupage/decoupage/internal/convert"
	"github.com/decoupage/decoupage/internal/fetch"
	"github.com/decoupage/decoupage/internal/issue"
	"github.com/decoupage/decoupage/internal/report"
)

const (
	// ModeFetch names fetch runs in summaries.
	ModeFetch = "fetch"
	// ModeConvert names convert runs in summaries.
	ModeConvert = "convert"
)

type (
	// Fetcher downloads and extracts one layer.
	Fetcher interface {
		ProcessLayer(ctx context.Context, layer *config.Layer) (fetch.Result, error)
	}

	// Converter converts one layer. explicit bypasses the enabled flag.
	Converter interface {
		ConvertLayer(ctx context.Context, layer *config.Layer, explicit bool) (convert.LayerResult, error)
	}

	// Selection is a layer chosen for a run.
	Selection struct {
		Layer *config.Layer
		// Explicit is set when the layer was requested by name.
		Explicit bool
	}
)

// SelectLayers returns every declared layer, or only the named one. An
// unknown name is a configuration error that aborts the run.
func SelectLayers(cfg *config.Config, name string) ([]Selection, error) {
	if name == "" {
		sel := make([]Selection, 0, len(cfg.Layers))
		for i := range cfg.Layers {
			sel = append(sel, Selection{Layer: &cfg.Layers[i]})
		}
		return sel, nil
	}

	layer, ok := cfg.Layer(name)
	if !ok {
		return nil, issue.NewErrorContext().
			WithOperation("select layer").
			WithResource(name).
			WithSuggestion("Run 'decoupage layers' to list the declared layers").
			WithIssue(issue.LayerNotFoundId).
			Wrap(fmt.Errorf("%w: unknown layer %q (declared: %v)", issue.ErrConfiguration, name, cfg.LayerNames())).
			BuildError()
	}
	return []Selection{{Layer: layer, Explicit: true}}, nil
}

// Fetch downloads and extracts every declared layer. Disabled layers are
// skipped by the stage.
func Fetch(ctx context.Context, cfg *config.Config, f Fetcher, r report.Reporter) (report.Summary, error) {
	sel, err := SelectLayers(cfg, "")
	if err != nil {
		return report.Summary{}, err
	}
	return run(ctx, ModeFetch, sel, r, func(ctx context.Context, s Selection) (bool, error) {
		res, err := f.ProcessLayer(ctx, s.Layer)
		return res.Skipped, err
	})
}

// Convert converts every enabled layer, or exactly the named layer when
// layerName is set.
func Convert(ctx context.Context, cfg *config.Config, c Converter, r report.Reporter, layerName string) (report.Summary, error) {
	sel, err := SelectLayers(cfg, layerName)
	if err != nil {
		return report.Summary{}, err
	}
	return run(ctx, ModeConvert, sel, r, func(ctx context.Context, s Selection) (bool, error) {
		res, err := c.ConvertLayer(ctx, s.Layer, s.Explicit)
		return res.Skipped, err
	})
}

func run(ctx context.Context, mode string, sel []Selection, r report.Reporter, do func(context.Context, Selection) (bool, error)) (report.Summary, error) {
	summary := report.Summary{Mode: mode, Total: len(sel)}

	for _, s := range sel {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		r.Section(sectionTitle(s.Layer))
		skipped, err := do(ctx, s)
		switch {
		case err != nil && ctx.Err() != nil:
			return summary, ctx.Err()
		case err != nil && issue.IsFatal(err):
			return summary, issue.WrapWithContext(err, mode+" layer", s.Layer.Name)
		case err != nil:
			summary.Failed++
			r.Failure("%s: %v", s.Layer.Name, err)
		case skipped:
			summary.Skipped++
		default:
			summary.Succeeded++
		}
	}

	r.Summary(summary)
	return summary, nil
}

func sectionTitle(l *config.Layer) string {
	if l.Label == "" || l.Label == l.Name {
		return l.Name
	}
	return fmt.Sprintf("%s (%s)", l.Label, l.Name)
}
