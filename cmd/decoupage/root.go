// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/decoupage/decoupage/internal/config"
	"github.com/decoupage/decoupage/internal/report"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "decoupage",
		Short: "Build web-ready French administrative boundaries",
		Long: report.TitleStyle.Render("decoupage") + report.SubtitleStyle.Render(" - French administrative boundaries for the web") + `

decoupage downloads boundary archives, extracts their shapefiles and converts
them with mapshaper into GeoJSON and TopoJSON at several simplification levels.
Layers, sources and output variants are declared in a JSON (or CUE) file.

` + report.SubtitleStyle.Render("Examples:") + `
  decoupage fetch                     Download and extract every enabled layer
  decoupage convert                   Convert every enabled layer
  decoupage convert --layer=communes  Convert one layer, even if disabled
  decoupage plan --layer=regions      Print the mapshaper commands only
  decoupage layers                    List declared layers`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return fatal(app.init())
		},
	}

	flags := root.PersistentFlags()
	addSettingsFlags(flags)
	// Flags win over DECOUPAGE_* environment variables, which win over defaults.
	_ = app.viper.BindPFlags(flags)

	root.AddCommand(
		newFetchCommand(app),
		newConvertCommand(app),
		newPlanCommand(app),
		newLayersCommand(app),
		newConfigCommand(app),
	)
	return root
}

// addSettingsFlags registers one flag per config.Settings key.
func addSettingsFlags(flags *pflag.FlagSet) {
	flags.String(config.KeyConfig, config.DefaultConfigFile, "layer configuration file")
	flags.BoolP(config.KeyVerbose, "v", false, "enable verbose output")
	flags.Bool(config.KeyStrict, false, "exit with code 1 when any layer fails")
	flags.String(config.KeyMapshaper, config.DefaultMapshaper, "mapshaper binary")
	flags.String(config.KeyArchiver, config.DefaultArchiver, "7z-compatible archiver binary")
	flags.Duration(config.KeyHTTPTimeout, config.DefaultTimeout, "timeout per download attempt (0 disables)")
	flags.Duration(config.KeyToolTimeout, config.DefaultTimeout, "timeout per subprocess (0 disables)")
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{DotEnv: []string{".env"}})

	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, app.settings.Verbose)
		}),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
