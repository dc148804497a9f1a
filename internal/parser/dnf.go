// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"strings"

	"github.com/pkgpulse/pkgpulse/internal/update"
)

var dnfNoise = []string{
	"Last metadata expiration check",
	"Security:",
	"Updating and loading repositories",
	"Repositories loaded",
}

// parseDnf handles "name.arch version repo". dnf wraps long package names
// onto their own line, with version and repository on the following one.
func parseDnf(stdout string, origin update.Origin) ([]update.Record, []string) {
	var records []update.Record
	var unknown []string
	pending := ""

	for _, line := range lines(stdout) {
		if strings.HasPrefix(line, "Obsoleting Packages") {
			// The obsoletes section repeats packages already listed above.
			break
		}
		if hasAnyPrefix(line, dnfNoise...) {
			continue
		}

		fields := strings.Fields(line)
		if pending != "" {
			if len(fields) == 2 {
				fields = []string{pending, fields[0], fields[1]}
			} else {
				unknown = append(unknown, pending)
			}
			pending = ""
		}

		switch {
		case len(fields) == 1 && strings.Contains(fields[0], "."):
			pending = fields[0]
		case len(fields) == 3:
			name := fields[0]
			if i := strings.LastIndex(name, "."); i > 0 {
				name = name[:i]
			}
			records = append(records, update.Record{Name: name, NewVersion: fields[1], Origin: origin})
		default:
			unknown = append(unknown, line)
		}
	}
	if pending != "" {
		unknown = append(unknown, pending)
	}

	return records, unknown
}
