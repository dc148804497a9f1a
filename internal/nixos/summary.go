// SPDX-License-Identifier: MPL-2.0

package nixos

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkgpulse/pkgpulse/internal/update"
)

// SystemRecordName names the generic record reported when a new generation
// is pending but no finer-grained change could be listed.
const SystemRecordName = "nixos-system"

var (
	derivationsRe = regexp.MustCompile(`these (\d+) derivations? will be built`)
	fetchRe       = regexp.MustCompile(`these (\d+) paths? will be fetched`)
	generationRe  = regexp.MustCompile(`(?i)would activate the configuration|new generation`)
)

type buildSummary struct {
	derivations int
	fetches     int
	generation  bool
}

func summarize(output string) buildSummary {
	var s buildSummary
	if m := derivationsRe.FindStringSubmatch(output); m != nil {
		s.derivations, _ = strconv.Atoi(m[1])
	}
	if m := fetchRe.FindStringSubmatch(output); m != nil {
		s.fetches, _ = strconv.Atoi(m[1])
	}
	s.generation = generationRe.MatchString(output)
	return s
}

// pending reports whether the output signals a change to the system.
func (s buildSummary) pending() bool {
	return s.derivations > 0 || s.fetches > 0 || s.generation
}

func (s buildSummary) String() string {
	var parts []string
	if s.derivations > 0 {
		parts = append(parts, fmt.Sprintf("%d to build", s.derivations))
	}
	if s.fetches > 0 {
		parts = append(parts, fmt.Sprintf("%d to fetch", s.fetches))
	}
	if len(parts) == 0 {
		return "new generation"
	}
	return strings.Join(parts, ", ")
}

func (s buildSummary) record() update.Record {
	return update.Record{
		Name:       SystemRecordName,
		NewVersion: s.String(),
		Origin:     update.OriginOfficial,
	}
}
