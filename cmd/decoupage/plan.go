// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/decoupage/decoupage/internal/config"
	"github.com/decoupage/decoupage/internal/convert"
	"github.com/decoupage/decoupage/internal/issue"
	"github.com/decoupage/decoupage/internal/mapshaper"
	"github.com/decoupage/decoupage/internal/pipeline"
	"github.com/decoupage/decoupage/internal/report"

	"github.com/spf13/cobra"
)

func newPlanCommand(app *App) *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the mapshaper commands convert would run",
		Long: `Print the mapshaper commands convert would run, without running them.

Commands are shell-quoted and can be pasted into a terminal. Layers that have
not been fetched yet show the path their shapefile is expected under.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), app, layer)
		},
	}
	cmd.Flags().StringVar(&layer, "layer", "", "plan only this layer (bypasses its enabled flag)")
	return cmd
}

func runPlan(ctx context.Context, app *App, layerName string) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return fatal(err)
	}
	sel, err := pipeline.SelectLayers(cfg, layerName)
	if err != nil {
		return fatal(err)
	}

	tool := app.Tools.GeometryTool(app.settings)
	w := app.stdout
	for _, s := range sel {
		l := s.Layer
		if !l.Enabled && !s.Explicit {
			fmt.Fprintf(w, "%s %s\n", report.SubtitleStyle.Render("○"), report.SubtitleStyle.Render(l.Name+" (disabled)"))
			continue
		}
		if err := printLayerPlan(w, app, cfg, l, tool); err != nil {
			fmt.Fprintf(w, "%s %s: %s\n\n", report.ErrorStyle.Render("✗"), l.Name, err)
		}
	}
	return nil
}

func printLayerPlan(w io.Writer, app *App, cfg *config.Config, l *config.Layer, tool GeometryTool) error {
	shp, err := convert.Locate(app.Fs, cfg.Directories, l)
	note := ""
	if errors.Is(err, issue.ErrLocate) {
		name, _ := l.ShapefileName()
		shp = filepath.Join(cfg.Directories.LayerSourceDir(l.Name), "...", name)
		note = report.WarningStyle.Render(" (not fetched yet)")
	} else if err != nil {
		return err
	}

	fmt.Fprintln(w, report.TitleStyle.Render(l.DisplayName())+note)
	plan := convert.BuildPlan(cfg.Directories, cfg.Options, l, shp)
	for _, name := range plan.DuplicateOutputs() {
		fmt.Fprintln(w, report.WarningStyle.Render("  ⚠ several profiles write "+name+", the last one wins"))
	}
	for _, step := range plan.Steps {
		fmt.Fprintln(w, report.CmdStyle.Render("  "+tool.CommandLine(mapshaper.GeoArgs(shp, step.GeoJSONPath, step.Transform))))
		fmt.Fprintln(w, report.CmdStyle.Render("  "+tool.CommandLine(mapshaper.TopoArgs(step.GeoJSONPath, step.TopoJSONPath))))
	}
	fmt.Fprintln(w)
	return nil
}
