// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/pkg/types"
)

func shellCommand(script string) backend.Command {
	return backend.Command{Binary: "sh", Args: []string{"-c", script}}
}

func TestExecRunnerCollectsOutput(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	r := NewExecRunner()
	out, err := r.Run(context.Background(), shellCommand(`echo "linux 6.1 -> 6.2"; echo warn >&2; exit 2`))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.ExitCode != 2 {
		t.Errorf("ExitCode = %v, want 2", out.ExitCode)
	}
	if strings.TrimSpace(out.Stdout) != "linux 6.1 -> 6.2" {
		t.Errorf("Stdout = %q", out.Stdout)
	}
	if strings.TrimSpace(out.Stderr) != "warn" {
		t.Errorf("Stderr = %q", out.Stderr)
	}
	if !strings.Contains(out.Combined(), "warn") || !strings.Contains(out.Combined(), "linux") {
		t.Errorf("Combined() = %q", out.Combined())
	}
}

func TestExecRunnerForcesCLocale(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	out, err := NewExecRunner().Run(context.Background(), shellCommand(`printf %s "$LC_ALL"`))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Stdout != "C" {
		t.Errorf("LC_ALL = %q, want C", out.Stdout)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	t.Parallel()

	_, err := NewExecRunner().Run(context.Background(), backend.Command{Binary: "pkgpulse-definitely-missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Run() error = %v, want ErrNotFound", err)
	}
}

func TestExecRunnerCanceled(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecRunner().Run(ctx, shellCommand("sleep 5"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestExecRunnerUsesInjectedCommand(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	var gotName string
	r := NewExecRunner(WithExecCommand(func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		gotName = name
		return exec.CommandContext(ctx, "sh", "-c", "exit 100")
	}))

	out, err := r.Run(context.Background(), backend.Command{Binary: "dnf", Args: []string{"check-update", "-q"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if gotName != "dnf" {
		t.Errorf("factory called with %q, want dnf", gotName)
	}
	if out.ExitCode != types.ExitCode(100) {
		t.Errorf("ExitCode = %v, want 100", out.ExitCode)
	}
}
