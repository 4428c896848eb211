// SPDX-License-Identifier: MPL-2.0

package report

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsole_Lines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Section("Régions")
	c.Step("downloading %s", "ADMIN.7z")
	c.Success("downloaded %d bytes", 42)
	c.Skip("archive already present")
	c.Warn("feature count mismatch")
	c.Failure("mapshaper failed\nError: unknown projection")

	out := buf.String()
	for _, want := range []string{
		"▸ Régions",
		"→ downloading ADMIN.7z",
		"✓ downloaded 42 bytes",
		"○ archive already present",
		"⚠ feature count mismatch",
		"✗ mapshaper failed",
		"Error: unknown projection",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsole_Summary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewConsole(&buf).Summary(Summary{Mode: "convert", Total: 3, Succeeded: 0, Skipped: 0, Failed: 3})

	if !strings.Contains(buf.String(), "convert complete: 3 layers, 0 succeeded, 0 skipped, 3 failed") {
		t.Errorf("summary line = %q", buf.String())
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		summary Summary
		want    string
		ok      bool
	}{
		{Summary{Mode: "fetch", Total: 1, Succeeded: 1}, "fetch complete: 1 layer, 1 succeeded, 0 skipped, 0 failed", true},
		{Summary{Mode: "convert", Total: 4, Succeeded: 2, Skipped: 1, Failed: 1}, "convert complete: 4 layers, 2 succeeded, 1 skipped, 1 failed", false},
	}
	for _, tt := range tests {
		if got := tt.summary.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if tt.summary.OK() != tt.ok {
			t.Errorf("OK() = %v, want %v", tt.summary.OK(), tt.ok)
		}
	}
}

func TestFormatting(t *testing.T) {
	t.Parallel()

	if got := Bytes(1_500_000); got != "1.5 MB" {
		t.Errorf("Bytes(1.5e6) = %q", got)
	}
	if got := Bytes(-1); got != "0 B" {
		t.Errorf("Bytes(-1) = %q", got)
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ratio float64
		want  string
	}{
		{0.632, "-63.2%"},
		{0.5, "-50%"},
		{-0.031, "+3.1%"},
		{0, "0%"},
	}
	for _, tt := range tests {
		if got := Ratio(tt.ratio); got != tt.want {
			t.Errorf("Ratio(%v) = %q, want %q", tt.ratio, got, tt.want)
		}
	}
}
