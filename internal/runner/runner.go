// SPDX-License-Identifier: MPL-2.0

// Package runner executes backend commands and collects their output.
//
// A nonzero exit status is data, not an error: package managers use exit
// codes to report "no updates" or "updates available", so the parser decides
// what a status means. Run returns an error only when the process could not
// be started or was cut short by context cancellation.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/pkg/types"
)

// ErrNotFound is returned when the command binary does not exist.
var ErrNotFound = errors.New("executable not found")

type (
	// Runner runs a backend command.
	Runner interface {
		Run(ctx context.Context, cmd backend.Command) (*Output, error)
	}

	// Output is what a finished command produced.
	Output struct {
		ExitCode types.ExitCode
		Stdout   string
		Stderr   string
		Duration time.Duration
	}

	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// ExecRunner runs commands as local subprocesses.
	ExecRunner struct {
		execCommand ExecCommandFunc
		env         []string
	}

	// ExecOption configures an ExecRunner.
	ExecOption func(*ExecRunner)
)

// WithExecCommand sets a custom exec.Cmd factory.
func WithExecCommand(fn ExecCommandFunc) ExecOption {
	return func(r *ExecRunner) { r.execCommand = fn }
}

// WithEnv appends environment variables to every command.
func WithEnv(kv ...string) ExecOption {
	return func(r *ExecRunner) { r.env = append(r.env, kv...) }
}

// NewExecRunner creates a runner that forces the C locale so output grammars
// see untranslated text.
func NewExecRunner(opts ...ExecOption) *ExecRunner {
	r := &ExecRunner{
		execCommand: exec.CommandContext,
		env:         []string{"LC_ALL=C", "LANG=C"},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Combined returns stdout followed by stderr. Some tools (nix) print their
// progress and results to stderr.
func (o *Output) Combined() string {
	if o.Stderr == "" {
		return o.Stdout
	}
	return o.Stdout + "\n" + o.Stderr
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c backend.Command) (*Output, error) {
	cmd := r.execCommand(ctx, c.Binary, c.Args...)
	cmd.Env = append(os.Environ(), r.env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	out := &Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("run %s: %w", c.Binary, ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("run %s: %w: %w", c.Binary, ErrNotFound, err)
			}
			return nil, fmt.Errorf("run %s: %w", c.Binary, err)
		}
		out.ExitCode = types.ExitCode(exitErr.ExitCode())
	}

	slog.Debug("command finished",
		"command", c.String(),
		"exit", out.ExitCode,
		"stdout_bytes", len(out.Stdout),
		"duration", out.Duration)
	return out, nil
}
