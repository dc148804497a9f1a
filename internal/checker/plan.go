// SPDX-License-Identifier: MPL-2.0

package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"mvdan.cc/sh/v3/syntax"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/nixos"
)

// Plan is an update the user runs in a terminal.
type Plan struct {
	Backend backend.Kind
	// Command is the bare update command.
	Command string
	// Script runs Command and then removes MarkerPath, whatever the outcome.
	Script     string
	MarkerPath string
}

// NewMarkerPath returns a unique completion marker path in dir, or in the
// runtime dir when dir is empty.
func NewMarkerPath(dir string) string {
	if dir == "" {
		dir = os.Getenv("XDG_RUNTIME_DIR")
		if dir == "" {
			dir = os.TempDir()
		}
	}
	return filepath.Join(dir, fmt.Sprintf("%s-update-%s.marker", AppName, uuid.NewString()))
}

// PrepareUpdate returns the update plan for the active backend.
func (c *Checker) PrepareUpdate(mode nixos.ModeConfig, markerPath string) (*Plan, error) {
	kind, err := c.Backend()
	if err != nil {
		return nil, err
	}

	var command string
	if kind.Capabilities().DualMode {
		cfg, err := c.resolver.Resolve(mode)
		if err != nil {
			return nil, err
		}
		command, err = nixos.UpdateCommand(cfg)
		if err != nil {
			return nil, err
		}
	} else {
		command, err = backend.UpdateCommand(kind)
		if err != nil {
			return nil, err
		}
	}

	quoted, err := syntax.Quote(markerPath, syntax.LangBash)
	if err != nil {
		return nil, fmt.Errorf("quote marker path: %w", err)
	}
	return &Plan{
		Backend:    kind,
		Command:    command,
		Script:     command + "; rm -f " + quoted,
		MarkerPath: markerPath,
	}, nil
}

// WaitForCompletion creates the plan's marker, waits for the update shell to
// remove it, then waits for the system to settle before the caller
// re-checks.
func (c *Checker) WaitForCompletion(ctx context.Context, plan *Plan) error {
	f, err := os.OpenFile(plan.MarkerPath, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create completion marker: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("create completion marker: %w", err)
	}

	ticker := time.NewTicker(c.markerPoll)
	defer ticker.Stop()
	for {
		if _, err := os.Stat(plan.MarkerPath); errors.Is(err, os.ErrNotExist) {
			break
		}
		select {
		case <-ctx.Done():
			if err := os.Remove(plan.MarkerPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				slog.Debug("remove completion marker", "path", plan.MarkerPath, "error", err)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}

	slog.Debug("update finished, stabilizing", "delay", c.stabilizationDelay)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.stabilizationDelay):
		return nil
	}
}
