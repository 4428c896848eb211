// SPDX-License-Identifier: MPL-2.0

package archiver

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/decoupage/decoupage/internal/issue"
	"github.com/decoupage/decoupage/internal/testutil"
	"github.com/decoupage/decoupage/internal/toolexec"
)

func TestHelperProcess(t *testing.T) {
	testutil.RunHelperProcess()
}

func TestExtractArgs(t *testing.T) {
	t.Parallel()

	got := ExtractArgs("/data/sources/ADMIN.7z", "/data/sources/regions")
	want := []string{"x", "-y", "-o/data/sources/regions", "/data/sources/ADMIN.7z"}
	if !slices.Equal(got, want) {
		t.Errorf("ExtractArgs() = %v, want %v", got, want)
	}
}

func TestSevenZip_Extract(t *testing.T) {
	t.Parallel()

	recorder := testutil.NewMockCommandRecorder()
	sz := New("7za", toolexec.WithExecCommand(recorder.CommandFunc(t)))

	if err := sz.Extract(context.Background(), "/tmp/a.7z", "/tmp/out"); err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	calls := recorder.Invocations()
	if len(calls) != 1 || calls[0].Name != "7za" {
		t.Fatalf("unexpected invocations: %+v", calls)
	}
	recorder.AssertArgsContain(t, "-o/tmp/out")
}

func TestSevenZip_ExtractFailure(t *testing.T) {
	t.Parallel()

	recorder := testutil.NewMockCommandRecorder()
	recorder.ExitCode = 2
	recorder.Stderr = "ERROR: Data Error in encrypted file"
	sz := New("7z", toolexec.WithExecCommand(recorder.CommandFunc(t)))

	err := sz.Extract(context.Background(), "/tmp/a.7z", "/tmp/out")
	if err == nil {
		t.Fatal("Extract() should fail on non-zero exit")
	}
	if !errors.Is(err, issue.ErrExtraction) {
		t.Errorf("error should wrap ErrExtraction, got: %v", err)
	}

	var runErr *toolexec.RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("error should carry a RunError, got %T", err)
	}
	if runErr.ExitCode != 2 || !strings.Contains(runErr.Stderr, "Data Error") {
		t.Errorf("RunError = %+v", runErr)
	}
}

func TestSevenZip_Check(t *testing.T) {
	t.Parallel()

	missing := New("7z", toolexec.WithLookPath(func(string) (string, error) {
		return "", errors.New("executable file not found in $PATH")
	}))
	if err := missing.Check(); !errors.Is(err, toolexec.ErrNotFound) {
		t.Errorf("Check() = %v, want ErrNotFound", err)
	}

	found := New("7z", toolexec.WithLookPath(func(string) (string, error) { return "/usr/bin/7z", nil }))
	if err := found.Check(); err != nil {
		t.Errorf("Check() error: %v", err)
	}
}

func TestSevenZip_CommandLine(t *testing.T) {
	t.Parallel()

	got := New("7z").CommandLine("/data/my sources/a.7z", "/data/out")
	if got != "7z x -y -o/data/out '/data/my sources/a.7z'" {
		t.Errorf("CommandLine() = %q", got)
	}
}
