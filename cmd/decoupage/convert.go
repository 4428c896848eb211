// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/decoupage/decoupage/internal/convert"
	"github.com/decoupage/decoupage/internal/inspect"
	"github.com/decoupage/decoupage/internal/issue"
	"github.com/decoupage/decoupage/internal/pipeline"

	"github.com/spf13/cobra"
)

func newConvertCommand(app *App) *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert fetched shapefiles to GeoJSON and TopoJSON",
		Long: `Convert fetched shapefiles to GeoJSON and TopoJSON.

Every enabled layer is converted once per simplification profile. With
--layer, only that layer is converted, even when it is disabled. Outputs are
always rewritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), app, layer)
		},
	}
	cmd.Flags().StringVar(&layer, "layer", "", "convert only this layer (bypasses its enabled flag)")
	return cmd
}

func runConvert(ctx context.Context, app *App, layer string) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return fatal(err)
	}

	tool := app.Tools.GeometryTool(app.settings)
	if err := tool.Check(); err != nil {
		return fatal(geometryToolError(app.settings.Mapshaper, err))
	}

	rep := app.reporter()
	stage := convert.NewStage(cfg.Directories, cfg.Options, tool, rep,
		convert.WithFs(app.Fs),
		convert.WithFeatureCounter(inspect.New(inspect.WithFs(app.Fs))),
	)
	summary, err := pipeline.Convert(ctx, cfg, stage, rep, layer)
	if err != nil {
		return fatal(err)
	}
	return app.finish(rep, summary)
}

func geometryToolError(binary string, err error) error {
	return issue.NewErrorContext().
		WithOperation("find geometry tool").
		WithResource(binary).
		WithSuggestion("Install mapshaper with 'npm install -g mapshaper'").
		WithSuggestion("Point --mapshaper (or DECOUPAGE_MAPSHAPER) at the binary").
		WithIssue(issue.GeometryToolNotFoundId).
		Wrap(fmt.Errorf("%w: %w", issue.ErrConfiguration, err)).
		BuildError()
}
