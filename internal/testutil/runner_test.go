// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/runner"
)

func TestFakeRunner_Sequence(t *testing.T) {
	t.Parallel()

	f := NewFakeRunner().On("dnf check-update -q", Exit(1, "", "boom"), Exit(100, "vim.x86_64 2 updates", ""))
	cmd := backend.Command{Binary: "dnf", Args: []string{"check-update", "-q"}}

	first, err := f.Run(t.Context(), cmd)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if first.ExitCode != 1 || first.Stderr != "boom" {
		t.Errorf("first response = %+v", first)
	}

	for range 2 {
		out, err := f.Run(t.Context(), cmd)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if out.ExitCode != 100 {
			t.Errorf("repeated response exit = %d, want 100", out.ExitCode)
		}
	}

	if got := f.CallCount("dnf"); got != 3 {
		t.Errorf("CallCount() = %d, want 3", got)
	}
}

func TestFakeRunner_BinaryFallback(t *testing.T) {
	t.Parallel()

	f := NewFakeRunner().On("nix", Ok("updated"))
	out, err := f.Run(t.Context(), backend.Command{Binary: "nix", Args: []string{"flake", "update"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Stdout != "updated" {
		t.Errorf("Stdout = %q", out.Stdout)
	}
}

func TestFakeRunner_Unscripted(t *testing.T) {
	t.Parallel()

	_, err := NewFakeRunner().Run(t.Context(), backend.Command{Binary: "apt"})
	if !errors.Is(err, runner.ErrNotFound) {
		t.Errorf("Run() error = %v, want ErrNotFound", err)
	}
}

func TestFakeRunner_CancelledByHook(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	f := NewFakeRunner().On("apk", Response{Hook: func(context.Context, backend.Command) { cancel() }})

	if _, err := f.Run(ctx, backend.Command{Binary: "apk"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
