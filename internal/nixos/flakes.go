// SPDX-License-Identifier: MPL-2.0

package nixos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/runner"
	"github.com/pkgpulse/pkgpulse/internal/update"
)

const (
	shortHashLen = 7
	maxRefLen    = 12
)

// flakeUpdateRe matches the phrasings nix has used for moved inputs:
//
//	• Updated input 'nixpkgs':
//	    'github:NixOS/nixpkgs/0c19708…' (2024-09-20)
//	  → 'github:NixOS/nixpkgs/4f807e8…' (2024-09-30)
//	Updated 'nixpkgs': 'abc1234' -> 'def5678'
//	Will update input 'home-manager' from 'abc' to 'def'
var flakeUpdateRe = regexp.MustCompile(
	`(?:Updated|updated|Updating|updating|Will update|will update)\s+(?:input\s+)?['"‘]?([^\s'"‘’:]+)['"’]?:?` +
		`\s+(?:from\s+)?['"]?([^'"\s]+)['"]?(?:\s+\([^)]*\))?` +
		`\s+(?:->|→|to)\s+['"]?([^'"\s]+)['"]?`)

var upToDateRe = regexp.MustCompile(`(?i)up[ -]to[ -]date|no updates`)

// FlakesCheckCommand resolves inputs into lockOut, leaving the real lock
// file untouched.
func FlakesCheckCommand(cfg ModeConfig, lockOut string) backend.Command {
	return backend.Command{
		Binary: "nix",
		Args: []string{
			"--extra-experimental-features", "nix-command flakes",
			"flake", "update",
			"--flake", cfg.ConfigPath,
			"--output-lock-file", lockOut,
		},
	}
}

// RebuildPreviewCommand is the unprivileged build preview of the host.
func RebuildPreviewCommand(cfg ModeConfig) backend.Command {
	return backend.Command{
		Binary: "nixos-rebuild",
		Args:   []string{"dry-build", "--flake", cfg.ConfigPath + "#" + cfg.Hostname},
	}
}

// CheckFlakes reports which flake inputs would move.
func CheckFlakes(ctx context.Context, run runner.Runner, cfg ModeConfig) ([]update.Record, error) {
	lockPath := filepath.Join(cfg.ConfigPath, flakeLockFile)
	if _, err := os.Stat(lockPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, update.NewError(update.KindPreconditionMissing, string(backend.NixOS), "check flake inputs",
				fmt.Sprintf("%s not found; run 'nix flake lock' in %s first", lockPath, cfg.ConfigPath), nil)
		}
		return nil, update.NewError(update.KindPreconditionMissing, string(backend.NixOS), "check flake inputs", "", err)
	}

	scratch, err := os.MkdirTemp("", "pkgpulse-flake-")
	if err != nil {
		return nil, fmt.Errorf("create scratch lock directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	cmd := FlakesCheckCommand(cfg, filepath.Join(scratch, flakeLockFile))
	out, err := run.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if !out.ExitCode.IsSuccess() {
		return nil, update.CommandFailed(string(backend.NixOS), "run nix flake update", int(out.ExitCode), out.Stderr)
	}

	records, err := ParseFlakeUpdate(out.Combined())
	if err != nil {
		return nil, err
	}

	if cfg.RebuildPreview && len(records) > 0 {
		records = append(records, rebuildPreview(ctx, run, cfg)...)
	}
	return records, nil
}

// ParseFlakeUpdate extracts moved inputs. Zero matches is only an empty
// result when nix said the lock file is up to date.
func ParseFlakeUpdate(output string) ([]update.Record, error) {
	matches := flakeUpdateRe.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		if upToDateRe.MatchString(output) {
			return []update.Record{}, nil
		}
		return nil, update.NewError(update.KindUnparseableOutput, string(backend.NixOS), "parse flake update output",
			"no input changes found and nix did not report the lock file as up to date", nil)
	}

	records := make([]update.Record, 0, len(matches))
	for _, m := range matches {
		records = append(records, update.Record{
			Name:           "flake:" + m[1],
			CurrentVersion: ShortRef(m[2]),
			NewVersion:     ShortRef(m[3]),
			Origin:         update.OriginFlakeInput,
		})
	}
	return records, nil
}

// ShortRef shortens a flake reference for display: commit hashes become
// their first seven characters, anything else is capped at twelve.
func ShortRef(ref string) string {
	if i := strings.IndexByte(ref, '?'); i >= 0 {
		ref = ref[:i]
	}
	if i := strings.LastIndexByte(ref, '/'); i >= 0 && i < len(ref)-1 {
		ref = ref[i+1:]
	}
	if leadingHex(ref) >= shortHashLen {
		return ref[:shortHashLen]
	}
	ref = strings.TrimRight(ref, ".…")
	if len(ref) > maxRefLen {
		return ref[:maxRefLen]
	}
	return ref
}

func leadingHex(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			break
		}
		n++
	}
	return n
}

// rebuildPreview is best-effort: a failing dry-build does not hide the input
// changes already found.
func rebuildPreview(ctx context.Context, run runner.Runner, cfg ModeConfig) []update.Record {
	out, err := run.Run(ctx, RebuildPreviewCommand(cfg))
	if err != nil {
		slog.Debug("rebuild preview failed", "error", err)
		return nil
	}
	if !out.ExitCode.IsSuccess() {
		slog.Debug("rebuild preview exited nonzero", "exit", out.ExitCode, "stderr", update.Excerpt(out.Stderr))
		return nil
	}
	s := summarize(out.Combined())
	if s.derivations == 0 && s.fetches == 0 {
		return nil
	}
	return []update.Record{s.record()}
}
