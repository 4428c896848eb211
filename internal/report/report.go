// SPDX-License-Identifier: MPL-2.0

// Package report prints human-readable progress for fetch and convert runs.
// Output is colorized for terminals and is not a machine-readable interface.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type (
	// Reporter receives progress events from the pipeline stages.
	Reporter interface {
		// Section opens a block of output for one layer.
		Section(title string)
		// Step reports an action about to run.
		Step(format string, args ...any)
		// Success reports a completed unit of work.
		Success(format string, args ...any)
		// Skip reports work that was not needed or not enabled.
		Skip(format string, args ...any)
		// Warn reports a non-fatal anomaly.
		Warn(format string, args ...any)
		// Failure reports a failed unit of work. Processing continues.
		Failure(format string, args ...any)
		// Summary prints the closing line of a run.
		Summary(s Summary)
	}

	// Summary counts the outcome of a run, one unit per layer.
	Summary struct {
		// Mode names the run, e.g. "fetch" or "convert".
		Mode      string
		Total     int
		Succeeded int
		Skipped   int
		Failed    int
	}

	// Console writes colorized lines to an io.Writer.
	Console struct {
		mu  sync.Mutex
		out io.Writer
	}
)

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{out: w}
}

// Section implements Reporter.
func (c *Console) Section(title string) {
	c.println("\n" + TitleStyle.Render("▸ "+title))
}

// Step implements Reporter.
func (c *Console) Step(format string, args ...any) {
	c.line(VerboseStyle, "  →", format, args...)
}

// Success implements Reporter.
func (c *Console) Success(format string, args ...any) {
	c.line(SuccessStyle, "  ✓", format, args...)
}

// Skip implements Reporter.
func (c *Console) Skip(format string, args ...any) {
	c.line(SubtitleStyle, "  ○", format, args...)
}

// Warn implements Reporter.
func (c *Console) Warn(format string, args ...any) {
	c.line(WarningStyle, "  ⚠", format, args...)
}

// Failure implements Reporter.
func (c *Console) Failure(format string, args ...any) {
	c.line(ErrorStyle, "  ✗", format, args...)
}

// Summary implements Reporter. The closing line is always printed, even when
// every layer failed; the counts tell the caller what happened.
func (c *Console) Summary(s Summary) {
	style := SuccessStyle
	if s.Failed > 0 {
		style = WarningStyle
	}
	c.println("\n" + style.Render(s.String()))
}

func (c *Console) line(style lipgloss.Style, marker, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	lines := strings.Split(msg, "\n")
	out := make([]string, 0, len(lines))
	out = append(out, style.Render(marker+" "+lines[0]))
	for _, l := range lines[1:] {
		out = append(out, VerboseStyle.Render("      "+l))
	}
	c.println(strings.Join(out, "\n"))
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, s)
}

// String renders the closing line of a run.
func (s Summary) String() string {
	return fmt.Sprintf("%s complete: %d %s, %d succeeded, %d skipped, %d failed",
		s.Mode, s.Total, plural(s.Total, "layer", "layers"), s.Succeeded, s.Skipped, s.Failed)
}

// OK reports whether no layer failed.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// Bytes formats a file size for humans, e.g. "12 MB".
func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// Ratio formats a size reduction ratio as a signed size change: "-63.2%"
// for an output 63.2% smaller, "+3.1%" for one that grew.
func Ratio(r float64) string {
	change := -r * 100
	switch {
	case change < 0:
		return "-" + humanize.FtoaWithDigits(-change, 1) + "%"
	case change > 0:
		return "+" + humanize.FtoaWithDigits(change, 1) + "%"
	default:
		return "0%"
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
