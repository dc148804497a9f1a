// SPDX-License-Identifier: MPL-2.0

package privilege

import (
	"context"
	"os/exec"
	"regexp"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/runner"
	"github.com/pkgpulse/pkgpulse/internal/update"
)

// sudoPasswordRe matches sudo's diagnostics when -n meets a password prompt.
var sudoPasswordRe = regexp.MustCompile(`(?i)a password is required|a terminal is required|no askpass program`)

type (
	// Sudo escalates through non-interactive sudo.
	Sudo struct {
		run      runner.Runner
		lookPath func(string) (string, error)
		trusted  []string
	}

	// SudoOption configures Sudo.
	SudoOption func(*Sudo)
)

// WithSudoLookPath replaces exec.LookPath.
func WithSudoLookPath(fn func(string) (string, error)) SudoOption {
	return func(s *Sudo) { s.lookPath = fn }
}

// WithSudoTrustedPrefixes restricts where sudo may be found.
func WithSudoTrustedPrefixes(prefixes ...string) SudoOption {
	return func(s *Sudo) { s.trusted = prefixes }
}

// NewSudo returns the sudo strategy.
func NewSudo(run runner.Runner, opts ...SudoOption) *Sudo {
	s := &Sudo{run: run, lookPath: exec.LookPath, trusted: backend.DefaultTrustedPrefixes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Strategy.
func (s *Sudo) Name() string { return "sudo" }

// Execute implements Strategy. It is available only when `sudo -n -l` lists
// cmd as runnable without a password, so it never waits on a prompt and a
// sudoers rule scoped to the one binary is enough.
func (s *Sudo) Execute(ctx context.Context, cmd backend.Command) Result {
	sudo, err := s.lookPath("sudo")
	if err != nil {
		return unavailable("sudo not found: %w", err)
	}
	if !backend.IsTrustedPath(sudo, s.trusted) {
		return unavailable("sudo at %s is outside trusted directories", sudo)
	}

	check, err := s.run.Run(ctx, backend.Command{Binary: sudo, Args: sudoArgs(cmd, "-n", "-l")})
	if err != nil {
		return unavailable("sudo probe: %w", err)
	}
	if !check.ExitCode.IsSuccess() {
		return unavailable("sudo does not allow %s without a password", cmd.Binary)
	}

	out, err := s.run.Run(ctx, backend.Command{Binary: sudo, Args: sudoArgs(cmd, "-n")})
	if err != nil {
		return Result{Outcome: Failed, Err: err}
	}
	if !out.ExitCode.IsSuccess() && sudoPasswordRe.MatchString(out.Stderr) {
		return Result{Outcome: Failed, Output: out, Err: &update.Error{
			Kind:     update.KindAuthorizationRequired,
			Op:       "sudo " + cmd.Binary,
			Detail:   Guidance(cmd.Binary),
			ExitCode: int(out.ExitCode),
		}}
	}
	return Result{Outcome: Succeeded, Output: out}
}

// sudoArgs returns flags followed by "--" and the command line of cmd.
func sudoArgs(cmd backend.Command, flags ...string) []string {
	args := make([]string, 0, len(flags)+2+len(cmd.Args))
	args = append(args, flags...)
	args = append(args, "--", cmd.Binary)
	return append(args, cmd.Args...)
}
