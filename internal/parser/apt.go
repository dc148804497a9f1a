// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"regexp"
	"strings"

	"github.com/pkgpulse/pkgpulse/internal/update"
)

var upgradableFromRe = regexp.MustCompile(`\[upgradable from: ([^\]]+)\]`)

// parseApt handles "name/suite new arch [upgradable from: old]".
func parseApt(stdout string, origin update.Origin) ([]update.Record, []string) {
	var records []update.Record
	var unknown []string

	for _, line := range lines(stdout) {
		if isAptNoise(line) {
			continue
		}

		fields := strings.Fields(line)
		name, _, hasSuite := strings.Cut(fields[0], "/")
		if !hasSuite || len(fields) < 2 || name == "" {
			unknown = append(unknown, line)
			continue
		}

		rec := update.Record{Name: name, NewVersion: fields[1], Origin: origin}
		if m := upgradableFromRe.FindStringSubmatch(line); m != nil {
			rec.CurrentVersion = strings.TrimSpace(m[1])
		}
		records = append(records, rec)
	}

	return records, unknown
}

func isAptNoise(line string) bool {
	if line == "Done" {
		return true
	}
	return hasAnyPrefix(line, "Listing...", "WARNING:", "N:", "W:")
}
