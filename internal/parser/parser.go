// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/update"
	"github.com/pkgpulse/pkgpulse/pkg/types"
)

type (
	// grammar is one command's output format.
	grammar struct {
		name   string
		policy Policy
		// parse extracts records from stdout and returns the lines it could
		// neither parse nor recognize as noise.
		parse func(stdout string, origin update.Origin) (records []update.Record, unknown []string)
	}
)

var (
	checkupdatesGrammar = grammar{name: "checkupdates", policy: checkupdatesPolicy, parse: parseArch}
	aurGrammar          = grammar{name: "aur", policy: aurHelperPolicy, parse: parseArch}

	officialGrammars = map[backend.Kind]grammar{
		backend.Pacman:  checkupdatesGrammar,
		backend.Paru:    checkupdatesGrammar,
		backend.Yay:     checkupdatesGrammar,
		backend.Apt:     {name: "apt", policy: aptPolicy, parse: parseApt},
		backend.Dnf:     {name: "dnf", policy: dnfPolicy, parse: parseDnf},
		backend.Zypper:  {name: "zypper", policy: zypperPolicy, parse: parseZypper},
		backend.Apk:     {name: "apk", policy: apkPolicy, parse: parseApk},
		backend.Flatpak: {name: "flatpak", policy: flatpakPolicy, parse: parseFlatpak},
	}
)

// Parse interprets the output of backend.CheckCommand(kind).
func Parse(kind backend.Kind, exitCode types.ExitCode, stdout, stderr string) ([]update.Record, error) {
	g, ok := officialGrammars[kind]
	if !ok {
		return nil, update.NewError(update.KindUnparseableOutput, string(kind), "parse output",
			"no line grammar for this backend", nil)
	}
	return parseWith(g, string(kind), update.OriginOfficial, exitCode, stdout, stderr)
}

// ParseAUR interprets the output of backend.AURCheckCommand(kind).
func ParseAUR(kind backend.Kind, exitCode types.ExitCode, stdout, stderr string) ([]update.Record, error) {
	if !kind.Capabilities().SupportsAUR {
		return nil, update.NewError(update.KindUnparseableOutput, string(kind), "parse AUR output",
			"backend has no AUR support", nil)
	}
	return parseWith(aurGrammar, string(kind), update.OriginAUR, exitCode, stdout, stderr)
}

// OutcomeFor exposes the policy decision for a backend and exit code.
func OutcomeFor(kind backend.Kind, aur bool, exitCode types.ExitCode) (Outcome, bool) {
	if aur {
		if !kind.Capabilities().SupportsAUR {
			return OutcomeError, false
		}
		return aurGrammar.policy.Outcome(exitCode), true
	}
	g, ok := officialGrammars[kind]
	if !ok {
		return OutcomeError, false
	}
	return g.policy.Outcome(exitCode), true
}

func parseWith(g grammar, backendName string, origin update.Origin, exitCode types.ExitCode, stdout, stderr string) ([]update.Record, error) {
	op := "parse " + g.name + " output"
	outcome := g.policy.Outcome(exitCode)
	blank := strings.TrimSpace(stdout) == ""

	switch outcome {
	case OutcomeEmpty:
		if blank {
			return []update.Record{}, nil
		}
		// Some tools print a banner even when nothing is pending; records
		// found alongside a "no updates" code are still reported.
		records, _ := g.parse(stdout, origin)
		if len(records) > 0 {
			slog.Warn("records found despite no-updates exit code",
				"backend", backendName, "exit", exitCode, "records", len(records))
			return records, nil
		}
		return []update.Record{}, nil

	case OutcomeRecords:
		records, unknown := g.parse(stdout, origin)
		if len(records) == 0 {
			return nil, &update.Error{
				Kind:     update.KindUnparseableOutput,
				Backend:  backendName,
				Op:       op,
				Detail:   fmt.Sprintf("exit code signals pending updates but no package lines were found%s", unknownSuffix(unknown)),
				ExitCode: int(exitCode),
			}
		}
		logUnknown(backendName, unknown)
		return records, nil

	case OutcomeParse:
		records, unknown := g.parse(stdout, origin)
		if len(records) == 0 && len(unknown) > 0 {
			return nil, &update.Error{
				Kind:     update.KindUnparseableOutput,
				Backend:  backendName,
				Op:       op,
				Detail:   "no line matched the expected format" + unknownSuffix(unknown),
				ExitCode: int(exitCode),
			}
		}
		logUnknown(backendName, unknown)
		if records == nil {
			records = []update.Record{}
		}
		return records, nil

	default:
		if !blank {
			records, unknown := g.parse(stdout, origin)
			if len(records) > 0 && len(unknown) == 0 {
				slog.Warn("using output of failed command",
					"backend", backendName, "exit", exitCode, "records", len(records))
				return records, nil
			}
		}
		return nil, update.CommandFailed(backendName, "run "+g.name, int(exitCode), stderr)
	}
}

func logUnknown(backendName string, unknown []string) {
	if len(unknown) == 0 {
		return
	}
	slog.Debug("skipped unrecognized output lines", "backend", backendName, "count", len(unknown), "first", unknown[0])
}

func unknownSuffix(unknown []string) string {
	if len(unknown) == 0 {
		return ""
	}
	return fmt.Sprintf(" (first unrecognized line: %q)", unknown[0])
}

// lines splits output into trimmed, non-empty lines.
func lines(s string) []string {
	raw := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// hasAnyPrefix reports whether s starts with one of prefixes.
func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
