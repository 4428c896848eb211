// SPDX-License-Identifier: MPL-2.0

// Package mapshaper drives the mapshaper command-line tool: one invocation
// produces reprojected, filtered and simplified GeoJSON, a second encodes that
// GeoJSON as TopoJSON. Argument lists are built by pure functions so they can
// be checked without the tool installed.
package mapshaper

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/decoupage/decoupage/internal/issue"
	"github.com/decoupage/decoupage/internal/toolexec"
)

type (
	// Transform describes the first-stage conversion of a source geometry file.
	Transform struct {
		// Snap snaps nearly-coincident vertices on import.
		Snap bool
		// Projection is the target CRS (e.g. "wgs84", "EPSG:4326"). Empty keeps
		// the source projection.
		Projection string
		// Fields restricts output attributes, in order. Empty keeps all.
		Fields []string
		// Simplify is nil when every vertex is kept.
		Simplify *Simplify
		// Precision rounds output coordinates. Nil writes full precision.
		Precision *float64
	}

	// Simplify parameters for the -simplify command.
	Simplify struct {
		// Percent of removable vertices to retain, e.g. 2 for "2%".
		Percent float64
		// Method is "dp", "visvalingam" or "weighted"; empty uses the default.
		Method string
		// KeepShapes prevents small polygons from disappearing.
		KeepShapes bool
	}

	// Output is a file written by the tool.
	Output struct {
		Path string
		Size int64
	}

	// Tool runs mapshaper.
	Tool struct {
		cli *toolexec.CLI
	}
)

// New creates a Tool for the given binary.
func New(binary string, opts ...toolexec.Option) *Tool {
	opts = append([]toolexec.Option{toolexec.WithName("mapshaper")}, opts...)
	return &Tool{cli: toolexec.New(binary, opts...)}
}

// GeoArgs builds the first-stage invocation:
//
//	-i <input> [snap] [-proj <crs>] [-filter-fields a,b] [-simplify N% [method] [keep-shapes]]
//	-o format=geojson [precision=P] <output>
func GeoArgs(input, output string, t Transform) []string {
	args := []string{"-i", input}
	if t.Snap {
		args = append(args, "snap")
	}
	if t.Projection != "" {
		args = append(args, "-proj", t.Projection)
	}
	if len(t.Fields) > 0 {
		args = append(args, "-filter-fields", strings.Join(t.Fields, ","))
	}
	if t.Simplify != nil {
		args = append(args, "-simplify", formatNumber(t.Simplify.Percent)+"%")
		if t.Simplify.Method != "" {
			args = append(args, t.Simplify.Method)
		}
		if t.Simplify.KeepShapes {
			args = append(args, "keep-shapes")
		}
	}
	args = append(args, "-o", "format=geojson")
	if t.Precision != nil {
		args = append(args, "precision="+formatNumber(*t.Precision))
	}
	return append(args, output)
}

// TopoArgs builds the second-stage invocation with default topology settings.
func TopoArgs(input, output string) []string {
	return []string{"-i", input, "-o", "format=topojson", output}
}

// ToGeoFormat runs the first stage and returns the written GeoJSON file.
func (m *Tool) ToGeoFormat(ctx context.Context, input, output string, t Transform) (Output, error) {
	return m.run(ctx, output, GeoArgs(input, output, t))
}

// ToTopologyFormat encodes a GeoJSON file as TopoJSON.
func (m *Tool) ToTopologyFormat(ctx context.Context, input, output string) (Output, error) {
	return m.run(ctx, output, TopoArgs(input, output))
}

// Check verifies the binary is installed.
func (m *Tool) Check() error {
	if _, err := m.cli.Resolve(); err != nil {
		return err
	}
	return nil
}

// CommandLine renders an invocation for display.
func (m *Tool) CommandLine(args []string) string {
	return m.cli.CommandLine(args...)
}

func (m *Tool) run(ctx context.Context, output string, args []string) (Output, error) {
	if _, err := m.cli.Run(ctx, args...); err != nil {
		return Output{}, fmt.Errorf("%w: %w", issue.ErrToolInvocation, err)
	}

	info, err := os.Stat(output)
	if err != nil {
		return Output{}, fmt.Errorf("%w: mapshaper reported success but %s is missing: %w", issue.ErrToolInvocation, output, err)
	}
	return Output{Path: output, Size: info.Size()}, nil
}

// formatNumber prints the shortest exact decimal form (0.0001, 2, 12.5).
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
