// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/decoupage/decoupage/internal/config"
	"github.com/decoupage/decoupage/internal/report"

	"github.com/spf13/cobra"
)

func newLayersCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List declared layers and their outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listLayers(cmd.Context(), app)
		},
	}
}

func listLayers(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return fatal(err)
	}

	w := app.stdout
	if len(cfg.Layers) == 0 {
		fmt.Fprintln(w, report.SubtitleStyle.Render("No layers declared in "+app.settings.ConfigPath))
		return nil
	}

	for i := range cfg.Layers {
		l := &cfg.Layers[i]
		marker := report.SuccessStyle.Render("✓")
		if !l.Enabled {
			marker = report.SubtitleStyle.Render("○")
		}
		fmt.Fprintf(w, "%s %s %s\n", marker, report.TitleStyle.Render(l.Name), report.SubtitleStyle.Render(l.DisplayName()))
		fmt.Fprintf(w, "    source:  %s\n", describeSource(l))
		for _, p := range l.Simplifications {
			fmt.Fprintf(w, "    output:  %s  %s\n",
				report.CmdStyle.Render(cfg.Directories.TopoJSONPath(p.OutputName(l))),
				report.VerboseStyle.Render(describeProfile(&p, l)))
		}
	}
	return nil
}

func describeSource(l *config.Layer) string {
	urls := l.URLs()
	parts := []string{}
	if name, err := l.ArchiveName(); err == nil {
		parts = append(parts, name)
	} else {
		parts = append(parts, report.ErrorStyle.Render("no source"))
	}
	if len(urls) > 1 {
		parts = append(parts, fmt.Sprintf("%d mirrors", len(urls)))
	}
	if l.Source.Shapefile != "" {
		parts = append(parts, "→ "+l.Source.Shapefile)
	}
	return strings.Join(parts, " ")
}

func describeProfile(p *config.Profile, l *config.Layer) string {
	parts := []string{p.DetailLabel()}
	if precision, ok := config.EffectivePrecision(p, l); ok {
		parts = append(parts, fmt.Sprintf("precision %g", precision))
	}
	if fields := config.EffectiveProperties(p, l); len(fields) > 0 {
		parts = append(parts, strings.Join(fields, ","))
	}
	return strings.Join(parts, ", ")
}
