// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"strings"

	"github.com/pkgpulse/pkgpulse/internal/update"
)

// parseApk handles "name-ver-rN arch {origin} (license) [upgradable from: name-old]".
func parseApk(stdout string, origin update.Origin) ([]update.Record, []string) {
	var records []update.Record
	var unknown []string

	for _, line := range lines(stdout) {
		if hasAnyPrefix(line, "fetch ", "WARNING:", "OK:") {
			continue
		}

		fields := strings.Fields(line)
		name, version, ok := splitApkPackage(fields[0])
		if !ok {
			unknown = append(unknown, line)
			continue
		}

		rec := update.Record{Name: name, NewVersion: version, Origin: origin}
		if m := upgradableFromRe.FindStringSubmatch(line); m != nil {
			if _, old, ok := splitApkPackage(strings.TrimSpace(m[1])); ok {
				rec.CurrentVersion = old
			}
		}
		records = append(records, rec)
	}

	return records, unknown
}

// splitApkPackage splits "py3-foo-1.2.3-r0" into ("py3-foo", "1.2.3-r0"):
// the version starts after the last '-' that is followed by a digit, which
// skips the "-rN" release suffix.
func splitApkPackage(s string) (name, version string, ok bool) {
	for i := len(s) - 2; i > 0; i-- {
		if s[i] == '-' && s[i+1] >= '0' && s[i+1] <= '9' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
