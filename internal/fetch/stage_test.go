// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/decoupage/decoupage/internal/config"
	"github.com/decoupage/decoupage/internal/issue"
	"github.com/decoupage/decoupage/internal/testutil"

	"github.com/spf13/afero"
)

type (
	fakeDownloader struct {
		mu    sync.Mutex
		fs    afero.Fs
		calls []string
		// fail maps a URL to the error its download returns.
		fail map[string]error
	}

	fakeExtractor struct {
		mu    sync.Mutex
		fs    afero.Fs
		calls []string
		err   error
	}
)

func (d *fakeDownloader) Download(_ context.Context, rawURL, dest string) (int64, error) {
	d.mu.Lock()
	d.calls = append(d.calls, rawURL)
	d.mu.Unlock()

	if err := d.fail[rawURL]; err != nil {
		return 0, err
	}
	body := []byte("from " + rawURL)
	if err := d.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	if err := afero.WriteFile(d.fs, dest, body, 0o644); err != nil {
		return 0, err
	}
	return int64(len(body)), nil
}

func (e *fakeExtractor) Extract(_ context.Context, archive, dest string) error {
	e.mu.Lock()
	e.calls = append(e.calls, archive)
	e.mu.Unlock()

	// Leave a partial file behind to check cleanup on failure.
	if err := afero.WriteFile(e.fs, filepath.Join(dest, "REGION.shp"), []byte("shp"), 0o644); err != nil {
		return err
	}
	return e.err
}

func testDirs() config.Directories {
	return config.Directories{
		Sources:  "/data/sources",
		GeoJSON:  "/data/geojson",
		TopoJSON: "/data/topojson",
	}
}

func archiveLayer(urls ...string) *config.Layer {
	return &config.Layer{
		Name:    "regions",
		Enabled: true,
		Source: config.Source{
			URLs:      urls,
			Archive:   true,
			Shapefile: "REGION.shp",
		},
	}
}

func newTestStage(fsys afero.Fs, d Downloader, e Extractor) (*Stage, *testutil.Reporter) {
	r := testutil.NewReporter()
	return NewStage(testDirs(), d, e, r, WithStageFs(fsys)), r
}

func TestStage_DisabledLayerMakesNoCalls(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	d := &fakeDownloader{fs: fsys}
	e := &fakeExtractor{fs: fsys}
	stage, r := newTestStage(fsys, d, e)

	layer := archiveLayer("https://example.test/ADMIN.7z")
	layer.Enabled = false

	res, err := stage.ProcessLayer(context.Background(), layer)
	if err != nil {
		t.Fatalf("ProcessLayer() error: %v", err)
	}
	if !res.Skipped {
		t.Error("disabled layer should be reported as skipped")
	}
	if len(d.calls) != 0 || len(e.calls) != 0 {
		t.Errorf("disabled layer made calls: downloads=%v extractions=%v", d.calls, e.calls)
	}
	if !r.Contains("skip", "regions: disabled") {
		t.Errorf("missing skip notice, events: %v", r.Events())
	}
}

func TestStage_ExistingArchiveSkipsDownload(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/data/sources/ADMIN.7z", []byte("cached"), 0o644); err != nil {
		t.Fatal(err)
	}
	d := &fakeDownloader{fs: fsys}
	e := &fakeExtractor{fs: fsys}
	stage, r := newTestStage(fsys, d, e)

	res, err := stage.ProcessLayer(context.Background(), archiveLayer("https://example.test/ADMIN.7z"))
	if err != nil {
		t.Fatalf("ProcessLayer() error: %v", err)
	}
	if len(d.calls) != 0 {
		t.Errorf("expected zero downloads, got %v", d.calls)
	}
	if res.Downloaded {
		t.Error("Downloaded should be false for a cached archive")
	}
	if !r.Contains("skip", "ADMIN.7z already downloaded") {
		t.Errorf("missing cache notice, events: %v", r.Events())
	}
	if len(e.calls) != 1 {
		t.Errorf("expected one extraction, got %d", len(e.calls))
	}
}

func TestStage_ExistingDirectorySkipsExtraction(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("/data/sources/regions", 0o755); err != nil {
		t.Fatal(err)
	}
	d := &fakeDownloader{fs: fsys}
	e := &fakeExtractor{fs: fsys}
	stage, _ := newTestStage(fsys, d, e)

	res, err := stage.ProcessLayer(context.Background(), archiveLayer("https://example.test/ADMIN.7z"))
	if err != nil {
		t.Fatalf("ProcessLayer() error: %v", err)
	}
	if len(e.calls) != 0 {
		t.Errorf("expected zero archiver invocations, got %v", e.calls)
	}
	if res.Extracted {
		t.Error("Extracted should be false when the directory exists")
	}
	if len(d.calls) != 1 {
		t.Errorf("expected one download, got %d", len(d.calls))
	}
}

func TestStage_MirrorFallback(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/one/ADMIN.7z", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/two/ADMIN.7z", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/three/ADMIN.7z", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		_, _ = w.Write([]byte("third mirror body"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fsys := afero.NewMemMapFs()
	e := &fakeExtractor{fs: fsys}
	stage, r := newTestStage(fsys, NewClient(WithFs(fsys)), e)

	layer := archiveLayer(srv.URL+"/one/ADMIN.7z", srv.URL+"/two/ADMIN.7z", srv.URL+"/three/ADMIN.7z")
	res, err := stage.ProcessLayer(context.Background(), layer)
	if err != nil {
		t.Fatalf("ProcessLayer() error: %v", err)
	}

	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
	data, err := afero.ReadFile(fsys, "/data/sources/ADMIN.7z")
	if err != nil {
		t.Fatalf("archive not written: %v", err)
	}
	if string(data) != "third mirror body" {
		t.Errorf("archive content = %q", data)
	}
	if res.URL != srv.URL+"/three/ADMIN.7z" {
		t.Errorf("URL = %q", res.URL)
	}
	if got := len(r.Messages("warn")); got != 2 {
		t.Errorf("expected 2 mirror warnings, got %d", got)
	}
}

func TestStage_AllMirrorsFail(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	last := &StatusError{URL: "https://b.example/ADMIN.7z", StatusCode: http.StatusBadGateway}
	d := &fakeDownloader{fs: fsys, fail: map[string]error{
		"https://a.example/ADMIN.7z": fmt.Errorf("%w: connection refused", issue.ErrNetwork),
		"https://b.example/ADMIN.7z": last,
	}}
	e := &fakeExtractor{fs: fsys}
	stage, _ := newTestStage(fsys, d, e)

	_, err := stage.ProcessLayer(context.Background(), archiveLayer("https://a.example/ADMIN.7z", "https://b.example/ADMIN.7z"))
	if err == nil {
		t.Fatal("expected an error when every mirror fails")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Errorf("error should carry the last mirror's failure, got: %v", err)
	}
	if id, ok := issue.IssueOf(err); !ok || id != issue.DownloadFailedId {
		t.Errorf("IssueOf() = %v, %v", id, ok)
	}
	if len(e.calls) != 0 {
		t.Error("extraction must not run after a failed download")
	}
}

func TestStage_ExtractionFailureRemovesDirectory(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	d := &fakeDownloader{fs: fsys}
	e := &fakeExtractor{fs: fsys, err: fmt.Errorf("%w: 7z failed with exit code 2", issue.ErrExtraction)}
	stage, _ := newTestStage(fsys, d, e)

	_, err := stage.ProcessLayer(context.Background(), archiveLayer("https://example.test/ADMIN.7z"))
	if !errors.Is(err, issue.ErrExtraction) {
		t.Fatalf("expected an extraction error, got: %v", err)
	}
	if exists, _ := afero.DirExists(fsys, "/data/sources/regions"); exists {
		t.Error("partial extraction directory should be removed")
	}
	if exists, _ := afero.Exists(fsys, "/data/sources/ADMIN.7z"); !exists {
		t.Error("the downloaded archive should be kept")
	}
}

func TestStage_PlainFileSource(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	d := &fakeDownloader{fs: fsys}
	e := &fakeExtractor{fs: fsys}
	stage, _ := newTestStage(fsys, d, e)

	layer := &config.Layer{
		Name:    "communes",
		Enabled: true,
		Source: config.Source{
			URL:       "https://example.test/files/COMMUNE.shp?v=2",
			Shapefile: "COMMUNE.shp",
		},
	}
	res, err := stage.ProcessLayer(context.Background(), layer)
	if err != nil {
		t.Fatalf("ProcessLayer() error: %v", err)
	}
	if want := "/data/sources/communes/COMMUNE.shp"; res.ArchivePath != want {
		t.Errorf("ArchivePath = %q, want %q", res.ArchivePath, want)
	}
	if len(e.calls) != 0 {
		t.Error("non-archive sources are never extracted")
	}
}

func TestStage_ResolutionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source config.Source
	}{
		{name: "no url", source: config.Source{Archive: true, Shapefile: "REGION.shp"}},
		{name: "url without file name", source: config.Source{URL: "https://example.test/", Archive: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fsys := afero.NewMemMapFs()
			d := &fakeDownloader{fs: fsys}
			stage, _ := newTestStage(fsys, d, &fakeExtractor{fs: fsys})

			_, err := stage.ProcessLayer(context.Background(), &config.Layer{Name: "x", Enabled: true, Source: tt.source})
			if !errors.Is(err, issue.ErrResolution) {
				t.Errorf("expected a resolution error, got: %v", err)
			}
			if issue.IsFatal(err) {
				t.Error("resolution errors fail the layer only")
			}
			if len(d.calls) != 0 {
				t.Error("no download should be attempted")
			}
		})
	}
}

func TestStage_CanceledContextStopsMirrorLoop(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &fakeDownloader{fs: fsys, fail: map[string]error{
		"https://a.example/ADMIN.7z": context.Canceled,
	}}
	stage, _ := newTestStage(fsys, d, &fakeExtractor{fs: fsys})

	_, err := stage.ProcessLayer(ctx, archiveLayer("https://a.example/ADMIN.7z", "https://b.example/ADMIN.7z"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if len(d.calls) != 1 {
		t.Errorf("the loop should stop after cancellation, calls: %v", d.calls)
	}
}
