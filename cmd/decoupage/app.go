// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/decoupage/decoupage/internal/archiver"
	"github.com/decoupage/decoupage/internal/config"
	"github.com/decoupage/decoupage/internal/convert"
	"github.com/decoupage/decoupage/internal/fetch"
	"github.com/decoupage/decoupage/internal/mapshaper"
	"github.com/decoupage/decoupage/internal/report"
	"github.com/decoupage/decoupage/internal/toolexec"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

type (
	// Archiver extracts archives and can verify its binary is installed.
	Archiver interface {
		fetch.Extractor
		Check() error
	}

	// GeometryTool converts geometry files and renders its invocations.
	GeometryTool interface {
		convert.GeometryTool
		Check() error
		CommandLine(args []string) string
	}

	// Tools builds the external collaborators of a run from its settings.
	Tools interface {
		Downloader(s config.Settings) fetch.Downloader
		Archiver(s config.Settings) Archiver
		GeometryTool(s config.Settings) GeometryTool
	}

	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and
	// delegates to the pipeline through it.
	App struct {
		Config config.Provider
		Tools  Tools
		Fs     afero.Fs

		viper    *viper.Viper
		dotEnv   []string
		stdout   io.Writer
		stderr   io.Writer
		settings config.Settings
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Tools  Tools
		Fs     afero.Fs
		Viper  *viper.Viper
		// DotEnv lists .env files loaded before settings are read.
		DotEnv []string
		Stdout io.Writer
		Stderr io.Writer
	}

	// defaultTools builds the HTTP client, 7z and mapshaper adapters.
	defaultTools struct {
		fs afero.Fs
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:   deps.Config,
		Tools:    deps.Tools,
		Fs:       deps.Fs,
		viper:    deps.Viper,
		dotEnv:   deps.DotEnv,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
		settings: config.DefaultSettings(),
	}
	if app.Fs == nil {
		app.Fs = afero.NewOsFs()
	}
	if app.Config == nil {
		app.Config = config.NewProvider(app.Fs)
	}
	if app.Tools == nil {
		app.Tools = defaultTools{fs: app.Fs}
	}
	if app.viper == nil {
		app.viper = config.NewViper()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// init loads .env files, reads settings and installs the logger. It runs
// once per command, after flags are parsed.
func (a *App) init() error {
	if err := config.LoadDotEnv(a.dotEnv...); err != nil {
		return err
	}

	s, err := config.SettingsFrom(a.viper)
	if err != nil {
		return err
	}
	a.settings = s

	slog.SetDefault(newLogger(a.stderr, s.Verbose))
	return nil
}

func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.settings.ConfigPath})
}

func (a *App) reporter() report.Reporter {
	return report.NewConsole(a.stdout)
}

func (t defaultTools) Downloader(s config.Settings) fetch.Downloader {
	return fetch.NewClient(
		fetch.WithFs(t.fs),
		fetch.WithTimeout(s.HTTPTimeout),
		fetch.WithUserAgent("decoupage/"+Version),
	)
}

func (defaultTools) Archiver(s config.Settings) Archiver {
	return archiver.New(s.Archiver, toolexec.WithTimeout(s.ToolTimeout))
}

func (defaultTools) GeometryTool(s config.Settings) GeometryTool {
	return mapshaper.New(s.Mapshaper, toolexec.WithTimeout(s.ToolTimeout))
}
