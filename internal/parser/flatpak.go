// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"strings"

	"github.com/pkgpulse/pkgpulse/internal/update"
)

// flatpakLatest stands in for refs that publish no version string.
const flatpakLatest = "latest"

// parseFlatpak handles "name\tapplication\tversion\tbranch\torigin" rows and
// bare application IDs.
func parseFlatpak(stdout string, origin update.Origin) ([]update.Record, []string) {
	var records []update.Record
	var unknown []string

	for _, raw := range strings.Split(stdout, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || hasAnyPrefix(line, "Looking for updates", "Nothing to do") {
			continue
		}

		if !strings.Contains(line, "\t") {
			if strings.Contains(line, ".") && len(strings.Fields(line)) == 1 {
				records = append(records, update.Record{Name: line, NewVersion: flatpakLatest, Origin: origin})
			} else {
				unknown = append(unknown, line)
			}
			continue
		}

		cells := strings.Split(line, "\t")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		if cells[0] == "Name" && len(cells) > 1 && cells[1] == "Application ID" {
			continue
		}

		name := cells[0]
		if len(cells) > 1 && cells[1] != "" {
			name = cells[1]
		}
		version := ""
		if len(cells) > 2 {
			version = cells[2]
		}
		if version == "" {
			version = flatpakLatest
		}
		records = append(records, update.Record{Name: name, NewVersion: version, Origin: origin})
	}

	return records, unknown
}
