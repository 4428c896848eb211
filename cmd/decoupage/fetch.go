// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"slices"

	"github.com/decoupage/decoupage/internal/config"
	"github.com/decoupage/decoupage/internal/fetch"
	"github.com/decoupage/decoupage/internal/issue"
	"github.com/decoupage/decoupage/internal/pipeline"
	"github.com/decoupage/decoupage/internal/report"

	"github.com/spf13/cobra"
)

func newFetchCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download and extract the source data of every enabled layer",
		Long: `Download and extract the source data of every enabled layer.

Mirrors are tried in order until one answers 200. Archives already on disk are
not downloaded again and existing extraction directories are not extracted
again: delete them to force a refresh.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), app)
		},
	}
}

func runFetch(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return fatal(err)
	}

	rep := app.reporter()
	ar := app.Tools.Archiver(app.settings)
	if needsArchiver(cfg) {
		// Not fatal: layers whose directory is already extracted still succeed.
		if err := ar.Check(); err != nil {
			rep.Warn("%v", archiverError(app.settings.Archiver, err))
		}
	}

	stage := fetch.NewStage(cfg.Directories, app.Tools.Downloader(app.settings), ar, rep, fetch.WithStageFs(app.Fs))
	summary, err := pipeline.Fetch(ctx, cfg, stage, rep)
	if err != nil {
		return fatal(err)
	}
	return app.finish(rep, summary)
}

func needsArchiver(cfg *config.Config) bool {
	return slices.ContainsFunc(cfg.Layers, func(l config.Layer) bool {
		return l.Enabled && l.Source.Archive
	})
}

func archiverError(binary string, err error) error {
	return issue.NewErrorContext().
		WithOperation("find archiver").
		WithResource(binary).
		WithSuggestion("Install p7zip (7z) or point --archiver at a compatible binary").
		WithIssue(issue.ArchiverNotFoundId).
		Wrap(err).
		BuildError()
}

// finish applies --strict: per-layer failures only change the exit code
// when it is set.
func (a *App) finish(rep report.Reporter, s report.Summary) error {
	if s.OK() || !a.settings.Strict {
		return nil
	}
	rep.Failure("strict mode: %d of %d layers failed", s.Failed, s.Total)
	return &ExitError{Code: 1}
}
