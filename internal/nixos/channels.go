// SPDX-License-Identifier: MPL-2.0

package nixos

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/runner"
	"github.com/pkgpulse/pkgpulse/internal/update"
)

var unitSectionRe = regexp.MustCompile(`^would (start|restart|reload|stop) the following units?:\s*(.*)$`)

// ChannelsCheckCommand is the privileged activation preview.
func ChannelsCheckCommand() backend.Command {
	return backend.Command{
		Binary:     "nixos-rebuild",
		Args:       []string{"dry-activate", "--upgrade"},
		Privileged: true,
		ActionID:   backend.ActionCheck,
		Prompt:     "Authentication is required to check for NixOS updates",
	}
}

// CheckChannels runs the activation preview through the privileged runner.
func CheckChannels(ctx context.Context, privileged runner.Runner) ([]update.Record, error) {
	cmd := ChannelsCheckCommand()
	out, err := privileged.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if !out.ExitCode.IsSuccess() {
		return nil, update.CommandFailed(string(backend.NixOS), "run "+cmd.String(), int(out.ExitCode), out.Stderr)
	}
	return ParseDryActivate(out.Combined()), nil
}

// ParseDryActivate extracts the units activation would touch. Units follow
// a "would <action> the following units:" header, inline and comma-separated
// or on indented lines beneath it. Without any unit section, a pending
// build or generation yields a single generic record.
func ParseDryActivate(output string) []update.Record {
	records := []update.Record{}
	var action update.UnitAction

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := unitSectionRe.FindStringSubmatch(line); m != nil {
			action, _ = update.ParseUnitAction(m[1])
			records = appendUnits(records, m[2], action)
			continue
		}

		if action != "" && startsIndented(raw) {
			records = appendUnits(records, line, action)
			continue
		}
		action = ""
	}

	if len(records) == 0 {
		if s := summarize(output); s.pending() {
			records = append(records, s.record())
		}
	}
	return records
}

func appendUnits(records []update.Record, list string, action update.UnitAction) []update.Record {
	for _, unit := range strings.Split(list, ",") {
		unit = strings.TrimSpace(unit)
		if unit == "" {
			continue
		}
		records = append(records, update.Record{
			Name:       unit,
			NewVersion: string(action),
			Origin:     update.OriginServiceUnit,
			Action:     action,
		})
	}
	return records
}

func startsIndented(s string) bool {
	return s != "" && unicode.IsSpace(rune(s[0]))
}
