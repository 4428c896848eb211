// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// newLogger returns a structured logger writing to w. Debug records (HTTP
// attempts, redirects, subprocess command lines) are only shown when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	l := log.NewWithOptions(w, log.Options{
		Prefix:          "decoupage",
		Level:           log.InfoLevel,
		ReportTimestamp: verbose,
	})
	if verbose {
		l.SetLevel(log.DebugLevel)
	}
	return slog.New(l)
}
