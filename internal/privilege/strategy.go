// SPDX-License-Identifier: MPL-2.0

package privilege

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/runner"
	"github.com/pkgpulse/pkgpulse/internal/update"
)

const (
	// Succeeded means the command ran with elevated privileges. The command
	// itself may still have exited nonzero.
	Succeeded Outcome = iota
	// Unavailable means the strategy cannot be used on this system; the
	// chain moves on.
	Unavailable
	// Failed means the strategy applied but escalation failed; the chain
	// stops.
	Failed
)

type (
	// Outcome classifies a strategy attempt.
	Outcome int

	// Result is what a strategy reports.
	Result struct {
		Outcome Outcome
		Output  *runner.Output
		Err     error
	}

	// Strategy is one way of running a command as root.
	Strategy interface {
		Name() string
		Execute(ctx context.Context, cmd backend.Command) Result
	}

	// Chain tries strategies in order.
	Chain struct {
		strategies []Strategy
	}
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Unavailable:
		return "unavailable"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// NewChain returns a chain over strategies.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// DefaultChain tries polkit, then non-interactive sudo.
func DefaultChain(run runner.Runner) *Chain {
	return NewChain(NewPolkit(run), NewSudo(run))
}

// Run implements runner.Runner.
func (c *Chain) Run(ctx context.Context, cmd backend.Command) (*runner.Output, error) {
	for _, s := range c.strategies {
		res := s.Execute(ctx, cmd)
		switch res.Outcome {
		case Succeeded:
			slog.Debug("privileged command ran", "strategy", s.Name(), "command", cmd.String(), "action", cmd.ActionID)
			return res.Output, nil
		case Failed:
			return nil, res.Err
		default:
			slog.Debug("privilege strategy unavailable", "strategy", s.Name(), "reason", res.Err)
		}
	}
	return nil, update.NewError(update.KindAuthorizationRequired, "", "escalate "+cmd.Binary, Guidance(cmd.Binary), nil)
}

// ExecutePrivileged runs binary with args through the chain.
func (c *Chain) ExecutePrivileged(ctx context.Context, binary string, args []string, actionID, prompt string) (*runner.Output, error) {
	return c.Run(ctx, backend.Command{
		Binary:     binary,
		Args:       args,
		Privileged: true,
		ActionID:   actionID,
		Prompt:     prompt,
	})
}

// Guidance explains how to let binary run without an interactive prompt.
func Guidance(binary string) string {
	path := binary
	if !filepath.IsAbs(path) {
		if binary == "nixos-rebuild" {
			path = "/run/current-system/sw/bin/nixos-rebuild"
		} else {
			path = "/usr/bin/" + binary
		}
	}
	var sb strings.Builder
	sb.WriteString("no non-interactive privilege escalation is available; either install and start polkit, ")
	sb.WriteString("or allow passwordless sudo for the command with a sudoers rule such as:\n")
	sb.WriteString("  %wheel ALL=(ALL) NOPASSWD: ")
	sb.WriteString(path)
	return sb.String()
}

func unavailable(format string, args ...any) Result {
	return Result{Outcome: Unavailable, Err: fmt.Errorf(format, args...)}
}
