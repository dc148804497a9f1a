// SPDX-License-Identifier: MPL-2.0

package nixos

import (
	"context"
	"fmt"

	"mvdan.cc/sh/v3/syntax"

	"github.com/pkgpulse/pkgpulse/internal/runner"
	"github.com/pkgpulse/pkgpulse/internal/update"
)

// Check dispatches to the check for cfg.Mode, which must be resolved.
// privileged runs commands that need root; plain runs everything else.
func Check(ctx context.Context, plain, privileged runner.Runner, cfg ModeConfig) ([]update.Record, error) {
	switch cfg.Mode {
	case ModeChannels:
		return CheckChannels(ctx, privileged)
	case ModeFlakes:
		return CheckFlakes(ctx, plain, cfg)
	default:
		return nil, fmt.Errorf("nixos check: mode %q is not resolved", cfg.Mode)
	}
}

// UpdateCommand returns the shell command that applies updates for cfg.
func UpdateCommand(cfg ModeConfig) (string, error) {
	switch cfg.Mode {
	case ModeChannels:
		return "sudo nix-channel --update && sudo nixos-rebuild switch --upgrade", nil
	case ModeFlakes:
		dir, err := syntax.Quote(cfg.ConfigPath, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("quote config path: %w", err)
		}
		target, err := syntax.Quote(".#"+cfg.Hostname, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("quote flake target: %w", err)
		}
		return "cd " + dir + " && nix flake update && sudo nixos-rebuild switch --flake " + target, nil
	default:
		return "", fmt.Errorf("nixos update: mode %q is not resolved", cfg.Mode)
	}
}
