// SPDX-License-Identifier: MPL-2.0

package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/decoupage/decoupage/internal/config"
	"github.com/decoupage/decoupage/internal/inspect"
	"github.com/decoupage/decoupage/internal/mapshaper"
	"github.com/decoupage/decoupage/internal/testutil"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/afero"
)

// threeRegions returns three adjacent unit squares with densified shared
// edges, so the topology encoding has boundaries to deduplicate.
func threeRegions() map[string]any {
	const steps = 200
	edge := func(x0, y0, x1, y1 float64) [][]float64 {
		pts := make([][]float64, 0, steps)
		for i := range steps {
			f := float64(i) / steps
			pts = append(pts, []float64{x0 + (x1-x0)*f, y0 + (y1-y0)*f})
		}
		return pts
	}
	square := func(x float64) [][][]float64 {
		var ring [][]float64
		ring = append(ring, edge(x, 0, x+1, 0)...)
		ring = append(ring, edge(x+1, 0, x+1, 1)...)
		ring = append(ring, edge(x+1, 1, x, 1)...)
		ring = append(ring, edge(x, 1, x, 0)...)
		ring = append(ring, []float64{x, 0})
		return [][][]float64{ring}
	}

	var features []any
	for i, name := range []string{"Bretagne", "Normandie", "Corse"} {
		features = append(features, map[string]any{
			"type": "Feature",
			"properties": map[string]any{
				"NOM":       name,
				"INSEE_REG": fmt.Sprintf("%02d", 53+i),
				"EXTRA":     "dropped",
			},
			"geometry": map[string]any{
				"type":        "Polygon",
				"coordinates": square(float64(i)),
			},
		})
	}
	return map[string]any{"type": "FeatureCollection", "features": features}
}

func TestMapshaperEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mapshaper end-to-end test in short mode")
	}
	if _, err := exec.LookPath("mapshaper"); err != nil {
		t.Skip("mapshaper not installed")
	}

	root := t.TempDir()
	dirs := config.Directories{
		Sources:  filepath.Join(root, "sources"),
		GeoJSON:  filepath.Join(root, "geojson"),
		TopoJSON: filepath.Join(root, "topojson"),
	}

	testutil.MustWriteFile(t, filepath.Join(dirs.Sources, "regions", "nested", "regions.geojson"), oj.JSON(threeRegions()))

	layer := &config.Layer{
		Name:            "regions",
		Enabled:         true,
		Source:          config.Source{Shapefile: "regions.geojson"},
		Projection:      "wgs84",
		Properties:      &[]string{"NOM", "INSEE_REG"},
		Simplifications: []config.Profile{{Level: ptr(100.0), Suffix: ""}},
	}

	r := testutil.NewReporter()
	stage := NewStage(dirs, config.Options{}, mapshaper.New("mapshaper"), r,
		WithFs(afero.NewOsFs()), WithFeatureCounter(inspect.New()))

	res, err := stage.ConvertLayer(context.Background(), layer, false)
	if err != nil {
		t.Fatalf("ConvertLayer() error: %v\nevents: %v", err, r.Events())
	}

	pr := res.Profiles[0]
	counter := inspect.New()
	if n, err := counter.Count(pr.GeoJSON.Path, inspect.GeoJSON); err != nil || n != 3 {
		t.Errorf("GeoJSON features = %d, %v; want 3", n, err)
	}
	if n, err := counter.Count(pr.TopoJSON.Path, inspect.TopoJSON); err != nil || n != 3 {
		t.Errorf("TopoJSON geometries = %d, %v; want 3", n, err)
	}

	data, err := os.ReadFile(pr.GeoJSON.Path)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := oj.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	for _, props := range jp.MustParseString("$.features[*].properties").Get(doc) {
		m, ok := props.(map[string]any)
		if !ok {
			t.Fatalf("properties = %T", props)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		if !slices.Equal(keys, []string{"INSEE_REG", "NOM"}) {
			t.Errorf("retained attributes = %v", keys)
		}
	}

	if pr.TopoJSON.Size >= pr.GeoJSON.Size {
		t.Errorf("TopoJSON (%d bytes) should be smaller than GeoJSON (%d bytes)", pr.TopoJSON.Size, pr.GeoJSON.Size)
	}
	if r.Contains("warn", "features") {
		t.Errorf("unexpected feature-count warning: %v", r.Messages("warn"))
	}
	if !strings.HasSuffix(pr.TopoJSON.Path, filepath.Join("topojson", "regions.json")) {
		t.Errorf("TopoJSON path = %q", pr.TopoJSON.Path)
	}
}
