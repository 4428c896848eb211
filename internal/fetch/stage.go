// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/decoupage/decoupage/internal/config"
	"github.com/decoupage/decoupage/internal/issue"
	"github.com/decoupage/decoupage/internal/report"

	"github.com/spf13/afero"
)

type (
	// Downloader fetches one URL into a destination file.
	Downloader interface {
		Download(ctx context.Context, rawURL, dest string) (int64, error)
	}

	// Extractor unpacks an archive into an existing directory.
	Extractor interface {
		Extract(ctx context.Context, archive, dest string) error
	}

	// StageOption configures a Stage.
	StageOption func(*Stage)

	// Stage downloads and extracts the source data of one layer at a time.
	// Files already on disk are treated as a cache: an existing archive is
	// never downloaded again and an existing extraction directory is never
	// extracted again.
	Stage struct {
		dirs       config.Directories
		downloader Downloader
		extractor  Extractor
		reporter   report.Reporter
		fs         afero.Fs
	}

	// Result describes what ProcessLayer did.
	Result struct {
		// Skipped is true for disabled layers.
		Skipped bool
		// ArchivePath is where the downloaded artifact lives.
		ArchivePath string
		// Downloaded is false when the artifact was already present.
		Downloaded bool
		// URL is the mirror the artifact came from.
		URL string
		// Bytes is the downloaded size.
		Bytes int64
		// ExtractDir is set for archive sources.
		ExtractDir string
		// Extracted is false when the directory already existed.
		Extracted bool
	}
)

// WithStageFs sets the filesystem used for cache checks and directory
// creation. It must be the filesystem the Downloader and Extractor write to.
func WithStageFs(fsys afero.Fs) StageOption {
	return func(s *Stage) {
		s.fs = fsys
	}
}

// NewStage creates a fetch stage.
func NewStage(dirs config.Directories, d Downloader, e Extractor, r report.Reporter, opts ...StageOption) *Stage {
	s := &Stage{
		dirs:       dirs,
		downloader: d,
		extractor:  e,
		reporter:   r,
		fs:         afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ArtifactPath is where a layer's downloaded file is stored. Archives live
// directly under the sources directory; plain files go into the layer's own
// directory so the locate stage finds them.
func ArtifactPath(dirs config.Directories, layer *config.Layer) (string, error) {
	name, err := layer.ArchiveName()
	if err != nil {
		return "", err
	}
	if layer.Source.Archive {
		return dirs.ArchivePath(name), nil
	}
	return filepath.Join(dirs.LayerSourceDir(layer.Name), name), nil
}

// ProcessLayer downloads and extracts one layer. Disabled layers are skipped
// without any network or subprocess call.
func (s *Stage) ProcessLayer(ctx context.Context, layer *config.Layer) (Result, error) {
	if !layer.Enabled {
		s.reporter.Skip("%s: disabled", layer.Name)
		return Result{Skipped: true}, nil
	}

	if err := layer.ValidateSource(); err != nil {
		return Result{}, err
	}
	dest, err := ArtifactPath(s.dirs, layer)
	if err != nil {
		return Result{}, err
	}

	res := Result{ArchivePath: dest}
	if err := s.download(ctx, layer, &res); err != nil {
		return res, err
	}

	if !layer.Source.Archive {
		return res, nil
	}

	res.ExtractDir = s.dirs.LayerSourceDir(layer.Name)
	if err := s.extract(ctx, layer, &res); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Stage) download(ctx context.Context, layer *config.Layer, res *Result) error {
	name := filepath.Base(res.ArchivePath)

	exists, err := afero.Exists(s.fs, res.ArchivePath)
	if err != nil {
		return fmt.Errorf("checking %s: %w", res.ArchivePath, err)
	}
	if exists {
		s.reporter.Skip("%s already downloaded", name)
		return nil
	}

	urls := layer.URLs()
	var lastErr error
	for i, u := range urls {
		s.reporter.Step("downloading %s (mirror %d/%d: %s)", name, i+1, len(urls), redactURL(u))

		n, err := s.downloader.Download(ctx, u, res.ArchivePath)
		if err == nil {
			res.Downloaded, res.URL, res.Bytes = true, u, n
			s.reporter.Success("downloaded %s (%s)", name, report.Bytes(n))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		s.reporter.Warn("mirror %d/%d failed: %v", i+1, len(urls), err)
	}

	return issue.NewErrorContext().
		WithOperation("download archive").
		WithResource(name).
		WithSuggestion("Check your network connection and proxy settings").
		WithSuggestion("Add another mirror to source.urls").
		WithIssue(issue.DownloadFailedId).
		Wrap(lastErr).
		BuildError()
}

func (s *Stage) extract(ctx context.Context, layer *config.Layer, res *Result) error {
	exists, err := afero.DirExists(s.fs, res.ExtractDir)
	if err != nil {
		return fmt.Errorf("checking %s: %w", res.ExtractDir, err)
	}
	if exists {
		s.reporter.Skip("%s already extracted", layer.Name)
		return nil
	}

	if err := s.fs.MkdirAll(res.ExtractDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", res.ExtractDir, err)
	}

	s.reporter.Step("extracting %s into %s", filepath.Base(res.ArchivePath), res.ExtractDir)
	if err := s.extractor.Extract(ctx, res.ArchivePath, res.ExtractDir); err != nil {
		// Remove the partial tree so the next run extracts again.
		if rmErr := s.fs.RemoveAll(res.ExtractDir); rmErr != nil {
			s.reporter.Warn("could not remove %s: %v", res.ExtractDir, rmErr)
		}
		return issue.NewErrorContext().
			WithOperation("extract archive").
			WithResource(filepath.Base(res.ArchivePath)).
			WithSuggestion("Delete the archive so the next run downloads it again").
			WithSuggestion("Check that the archiver can open the file by hand").
			WithIssue(issue.ExtractionFailedId).
			Wrap(err).
			BuildError()
	}

	res.Extracted = true
	s.reporter.Success("extracted %s", layer.Name)
	return nil
}
