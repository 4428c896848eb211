// SPDX-License-Identifier: MPL-2.0

// Package archiver extracts downloaded archives with the 7z command-line tool.
package archiver

import (
	"context"
	"fmt"

	"github.com/decoupage/decoupage/internal/issue"
	"github.com/decoupage/decoupage/internal/toolexec"
)

// SevenZip extracts archives by running `7z x`.
type SevenZip struct {
	cli *toolexec.CLI
}

// New creates an extractor for the given 7z binary (e.g. "7z", "7za").
func New(binary string, opts ...toolexec.Option) *SevenZip {
	opts = append([]toolexec.Option{toolexec.WithName("7z")}, opts...)
	return &SevenZip{cli: toolexec.New(binary, opts...)}
}

// ExtractArgs builds the arguments extracting archive into dest with full
// paths, answering yes to every prompt.
func ExtractArgs(archive, dest string) []string {
	return []string{"x", "-y", "-o" + dest, archive}
}

// Extract unpacks archive into dest. dest must already exist.
// A non-zero exit is returned as an error wrapping issue.ErrExtraction.
func (s *SevenZip) Extract(ctx context.Context, archive, dest string) error {
	if _, err := s.cli.Run(ctx, ExtractArgs(archive, dest)...); err != nil {
		return fmt.Errorf("%w: %w", issue.ErrExtraction, err)
	}
	return nil
}

// Check verifies the binary is installed.
func (s *SevenZip) Check() error {
	if _, err := s.cli.Resolve(); err != nil {
		return err
	}
	return nil
}

// CommandLine renders the extraction command for display.
func (s *SevenZip) CommandLine(archive, dest string) string {
	return s.cli.CommandLine(ExtractArgs(archive, dest)...)
}
