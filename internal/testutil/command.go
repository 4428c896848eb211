// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	envWantHelper   = "GO_WANT_HELPER_PROCESS"
	envExitCode     = "GO_HELPER_EXIT_CODE"
	envStdout       = "GO_HELPER_STDOUT"
	envStderr       = "GO_HELPER_STDERR"
	envWriteLastArg = "GO_HELPER_WRITE_LAST_ARG"
)

type (
	// MockCommandRecorder captures arguments passed to exec.Command for verification.
	// It uses the TestHelperProcess pattern to simulate command execution.
	MockCommandRecorder struct {
		mu          sync.Mutex
		invocations []MockInvocation

		// ExitCode is the exit code to return (0 = success).
		ExitCode int
		// Stdout is the output to write to stdout.
		Stdout string
		// Stderr is the output to write to stderr.
		Stderr string
		// FailOnArg makes every invocation whose arguments contain this value
		// exit with code 1.
		FailOnArg string
		// WriteLastArg, when non-empty, is written by the helper process to the
		// path given as the invocation's last argument.
		WriteLastArg string
	}

	// MockInvocation represents a single invocation of exec.Command.
	MockInvocation struct {
		// Name is the command name (e.g., "mapshaper", "7z").
		Name string
		// Args are the arguments passed to the command.
		Args []string
	}
)

// NewMockCommandRecorder creates a new recorder with default settings (success, no output).
func NewMockCommandRecorder() *MockCommandRecorder {
	return &MockCommandRecorder{}
}

// CommandFunc returns a function that can replace exec.CommandContext.
// The function records invocations and returns a command that re-runs the
// test binary into TestHelperProcess.
func (m *MockCommandRecorder) CommandFunc(t testing.TB) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		m.mu.Lock()
		m.invocations = append(m.invocations, MockInvocation{Name: name, Args: slices.Clone(args)})
		exitCode := m.ExitCode
		if m.FailOnArg != "" && slices.Contains(args, m.FailOnArg) {
			exitCode = 1
		}
		env := []string{
			envWantHelper + "=1",
			fmt.Sprintf("%s=%d", envExitCode, exitCode),
			envStdout + "=" + m.Stdout,
			envStderr + "=" + m.Stderr,
			envWriteLastArg + "=" + m.WriteLastArg,
		}
		m.mu.Unlock()

		cs := []string{"-test.run=^TestHelperProcess$", "--", name}
		cs = append(cs, args...)
		//nolint:gosec // TestHelperProcess is a test-only pattern
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = env
		return cmd
	}
}

// Invocations returns a copy of the recorded invocations.
func (m *MockCommandRecorder) Invocations() []MockInvocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.invocations)
}

// LastArgs returns the arguments from the most recent invocation.
func (m *MockCommandRecorder) LastArgs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.invocations) == 0 {
		return nil
	}
	return m.invocations[len(m.invocations)-1].Args
}

// AssertCalls verifies the number of recorded invocations.
func (m *MockCommandRecorder) AssertCalls(t testing.TB, want int) {
	t.Helper()
	if got := len(m.Invocations()); got != want {
		t.Errorf("expected %d invocations, got %d", want, got)
	}
}

// AssertArgsContain verifies that the last invocation args contain the expected string.
func (m *MockCommandRecorder) AssertArgsContain(t testing.TB, expected string) {
	t.Helper()
	args := m.LastArgs()
	if !slices.Contains(args, expected) {
		t.Errorf("expected args to contain %q, got: %s", expected, strings.Join(args, " "))
	}
}

// RunHelperProcess is the body of each package's TestHelperProcess. It does
// nothing unless the test binary was started by a MockCommandRecorder, in
// which case it plays the configured behavior and exits.
func RunHelperProcess() {
	if os.Getenv(envWantHelper) != "1" {
		return
	}

	if content := os.Getenv(envWriteLastArg); content != "" && len(os.Args) > 0 {
		target := os.Args[len(os.Args)-1]
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "helper: %v", err)
			os.Exit(2)
		}
	}

	if stdout := os.Getenv(envStdout); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	if stderr := os.Getenv(envStderr); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}

	exitCode, _ := strconv.Atoi(os.Getenv(envExitCode))
	os.Exit(exitCode)
}
