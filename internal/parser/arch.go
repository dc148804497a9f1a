// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"strings"

	"github.com/pkgpulse/pkgpulse/internal/update"
)

// archNoise are prefixes printed by checkupdates, paru and yay around the
// package list.
var archNoise = []string{"::", "==>", "warning:", "error:"}

// parseArch handles "name old -> new" and the version-less "name new".
func parseArch(stdout string, origin update.Origin) ([]update.Record, []string) {
	var records []update.Record
	var unknown []string

	for _, line := range lines(stdout) {
		if hasAnyPrefix(line, archNoise...) {
			continue
		}
		line = strings.TrimSpace(strings.TrimSuffix(line, "[ignored]"))

		fields := strings.Fields(line)
		switch {
		case len(fields) == 4 && fields[2] == "->":
			records = append(records, update.Record{
				Name:           fields[0],
				CurrentVersion: fields[1],
				NewVersion:     fields[3],
				Origin:         origin,
			})
		case len(fields) == 2:
			records = append(records, update.Record{
				Name:       fields[0],
				NewVersion: fields[1],
				Origin:     origin,
			})
		default:
			unknown = append(unknown, line)
		}
	}

	return records, unknown
}
