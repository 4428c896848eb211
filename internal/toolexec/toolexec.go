// SPDX-License-Identifier: MPL-2.0

// Package toolexec runs external command-line tools (mapshaper, 7z) as
// subprocesses with a per-invocation timeout, captured output and typed
// failures. Process creation is injectable so adapters can be tested with
// the TestHelperProcess pattern instead of the real binaries.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"
)

// maxStderrInError bounds how much tool output is embedded in error messages.
const maxStderrInError = 4096

// ErrNotFound is returned by Resolve when the binary is not on PATH.
var ErrNotFound = errors.New("tool not found")

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// LookPathFunc resolves a binary name to a path.
	LookPathFunc func(file string) (string, error)

	// Option configures a CLI.
	Option func(*CLI)

	// CLI invokes one external binary.
	CLI struct {
		name        string
		binary      string
		execCommand ExecCommandFunc
		lookPath    LookPathFunc
		timeout     time.Duration
	}

	// Result holds the captured output of a successful invocation.
	Result struct {
		Stdout   []byte
		Stderr   []byte
		Duration time.Duration
	}

	// RunError describes a failed invocation. ExitCode is -1 when the process
	// could not be started or was killed.
	RunError struct {
		Tool     string
		Args     []string
		ExitCode int
		Stderr   string
		Err      error
	}

	// NotFoundError is returned when a binary cannot be resolved.
	// It wraps ErrNotFound for errors.Is() compatibility.
	NotFoundError struct {
		Tool   string
		Binary string
		Err    error
	}
)

// WithName sets the tool name used in logs and error messages.
func WithName(name string) Option {
	return func(c *CLI) {
		c.name = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(c *CLI) {
		c.execCommand = fn
	}
}

// WithLookPath sets a custom binary resolver for testing.
func WithLookPath(fn LookPathFunc) Option {
	return func(c *CLI) {
		c.lookPath = fn
	}
}

// WithTimeout bounds each invocation. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *CLI) {
		c.timeout = d
	}
}

// New creates a CLI for binary. The binary may be a bare name looked up on
// PATH or an explicit path.
func New(binary string, opts ...Option) *CLI {
	c := &CLI{
		name:        binary,
		binary:      binary,
		execCommand: exec.CommandContext,
		lookPath:    exec.LookPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve checks that the binary can be found and returns its path.
func (c *CLI) Resolve() (string, error) {
	path, err := c.lookPath(c.binary)
	if err != nil {
		return "", &NotFoundError{Tool: c.name, Binary: c.binary, Err: err}
	}
	return path, nil
}

// CommandLine renders the invocation as a shell-quoted command line, suitable
// for copy-pasting into a terminal.
func (c *CLI) CommandLine(args ...string) string {
	return CommandLine(c.binary, args...)
}

// Run executes the binary with args and waits for it to exit. A non-zero
// exit, a start failure or a timeout yields a *RunError carrying stderr.
func (c *CLI) Run(ctx context.Context, args ...string) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	slog.Debug("running tool", "tool", c.name, "command", c.CommandLine(args...))

	cmd := c.execCommand(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		runErr := &RunError{
			Tool:     c.name,
			Args:     args,
			ExitCode: -1,
			Stderr:   tail(strings.TrimSpace(stderr.String()), maxStderrInError),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			runErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) && c.timeout > 0 {
				runErr.Err = fmt.Errorf("timed out after %s: %w", c.timeout, ctxErr)
			} else {
				runErr.Err = ctxErr
			}
		}
		return nil, runErr
	}

	slog.Debug("tool finished", "tool", c.name, "duration", elapsed)

	return &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: elapsed,
	}, nil
}

// CommandLine shell-quotes binary and args with Bash quoting rules.
// Arguments that cannot be quoted (NUL bytes) are rendered with %q.
func CommandLine(binary string, args ...string) string {
	words := make([]string, 0, len(args)+1)
	for _, w := range append([]string{binary}, args...) {
		q, err := syntax.Quote(w, syntax.LangBash)
		if err != nil {
			q = fmt.Sprintf("%q", w)
		}
		words = append(words, q)
	}
	return strings.Join(words, " ")
}

// Error implements the error interface.
func (e *RunError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s failed", e.Tool)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&sb, " with exit code %d", e.ExitCode)
	}
	if e.Err != nil && e.ExitCode < 0 {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&sb, "\n%s", e.Stderr)
	}
	return sb.String()
}

// Unwrap returns the underlying process error.
func (e *RunError) Unwrap() error {
	return e.Err
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found (looked for %q): %v", e.Tool, e.Binary, e.Err)
}

// Unwrap returns ErrNotFound so callers can use errors.Is.
func (e *NotFoundError) Unwrap() []error {
	return []error{ErrNotFound, e.Err}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
