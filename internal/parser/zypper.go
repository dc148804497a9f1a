// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"slices"
	"strings"

	"github.com/pkgpulse/pkgpulse/internal/update"
)

var zypperNoise = []string{
	"Loading repository data",
	"Reading installed packages",
	"Retrieving repository",
	"Refreshing service",
	"Building repository",
	"No updates found",
	"Warning:",
}

type zypperColumns struct {
	name, current, available int
}

// zypperCompact is the layout "S | Name | Type | Version | Arch" printed by
// older releases without a Current Version column.
var zypperCompact = zypperColumns{name: 1, current: -1, available: 3}

// zypperFull is "S | Repository | Name | Current Version | Available Version | Arch".
var zypperFull = zypperColumns{name: 2, current: 3, available: 4}

// parseZypper handles the pipe-separated update table. Column positions come
// from the header row when one is present.
func parseZypper(stdout string, origin update.Origin) ([]update.Record, []string) {
	var records []update.Record
	var unknown []string
	var cols *zypperColumns

	for _, line := range lines(stdout) {
		if hasAnyPrefix(line, zypperNoise...) || isTableRule(line) {
			continue
		}
		if !strings.Contains(line, "|") {
			unknown = append(unknown, line)
			continue
		}

		cells := splitCells(line)
		if isZypperHeader(cells) {
			c := zypperHeaderColumns(cells)
			cols = &c
			continue
		}

		layout := cols
		if layout == nil {
			switch {
			case len(cells) >= 6:
				layout = &zypperFull
			case len(cells) == 5:
				layout = &zypperCompact
			}
		}
		if layout == nil || layout.name >= len(cells) || layout.available >= len(cells) ||
			cells[layout.name] == "" || cells[layout.available] == "" {
			unknown = append(unknown, line)
			continue
		}

		rec := update.Record{Name: cells[layout.name], NewVersion: cells[layout.available], Origin: origin}
		if layout.current >= 0 && layout.current < len(cells) {
			rec.CurrentVersion = cells[layout.current]
		}
		records = append(records, rec)
	}

	return records, unknown
}

func splitCells(line string) []string {
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func isTableRule(line string) bool {
	return strings.Trim(line, "-+| ") == ""
}

func isZypperHeader(cells []string) bool {
	return len(cells) > 1 && cells[0] == "S" && slices.Contains(cells, "Name")
}

func zypperHeaderColumns(cells []string) zypperColumns {
	c := zypperColumns{name: -1, current: -1, available: -1}
	for i, cell := range cells {
		switch cell {
		case "Name":
			c.name = i
		case "Current Version":
			c.current = i
		case "Available Version", "Version":
			c.available = i
		}
	}
	if c.name < 0 {
		c.name = zypperFull.name
	}
	if c.available < 0 {
		c.available = zypperFull.available
	}
	return c
}
