// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/decoupage/decoupage/internal/config"
	"github.com/decoupage/decoupage/internal/report"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `decoupage config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect decoupage configuration",
		Long: `Inspect decoupage configuration.

Layers are read from config.json in the working directory unless --config is
given. Runtime settings come from flags, then DECOUPAGE_* environment
variables (a .env file in the working directory is loaded first).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration and settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := filepath.Abs(app.settings.ConfigPath)
			if err != nil {
				p = app.settings.ConfigPath
			}
			fmt.Fprintln(app.stdout, p)
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return fatal(err)
	}

	s := app.settings
	w := app.stdout
	fmt.Fprintln(w, report.TitleStyle.Render("Settings"))
	fmt.Fprintf(w, "  config:       %s\n", s.ConfigPath)
	fmt.Fprintf(w, "  mapshaper:    %s\n", s.Mapshaper)
	fmt.Fprintf(w, "  archiver:     %s\n", s.Archiver)
	fmt.Fprintf(w, "  http-timeout: %s\n", s.HTTPTimeout)
	fmt.Fprintf(w, "  tool-timeout: %s\n", s.ToolTimeout)
	fmt.Fprintf(w, "  strict:       %t\n", s.Strict)
	fmt.Fprintln(w)

	out, err := config.GenerateCUE(cfg)
	if err != nil {
		return fatal(err)
	}
	fmt.Fprintln(w, report.TitleStyle.Render("Configuration"))
	fmt.Fprint(w, out)
	return nil
}
