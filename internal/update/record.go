// SPDX-License-Identifier: MPL-2.0

package update

import (
	"fmt"
	"time"
)

const (
	// OriginOfficial marks an update from the distribution repositories.
	OriginOfficial Origin = "official"
	// OriginAUR marks an update from the Arch User Repository.
	OriginAUR Origin = "aur"
	// OriginFlakeInput marks a pinned flake input that would move.
	OriginFlakeInput Origin = "flake-input"
	// OriginServiceUnit marks a systemd unit affected by activation.
	OriginServiceUnit Origin = "service-unit"
)

const (
	ActionStart   UnitAction = "start"
	ActionRestart UnitAction = "restart"
	ActionReload  UnitAction = "reload"
	ActionStop    UnitAction = "stop"
)

type (
	// Origin identifies where an update comes from.
	Origin string

	// UnitAction is what activation would do to a service unit.
	UnitAction string

	// Record is one pending change reported by a backend.
	Record struct {
		Name string `json:"name" yaml:"name" toml:"name"`
		// CurrentVersion is empty when the backend does not report it.
		CurrentVersion string `json:"current_version,omitempty" yaml:"current_version,omitempty" toml:"current_version,omitempty"`
		NewVersion     string `json:"new_version" yaml:"new_version" toml:"new_version"`
		Origin         Origin `json:"origin" yaml:"origin" toml:"origin"`
		// Action is set only for OriginServiceUnit records.
		Action UnitAction `json:"action,omitempty" yaml:"action,omitempty" toml:"action,omitempty"`
	}

	// CheckResult is the outcome of one successful check.
	CheckResult struct {
		Records    []Record  `json:"records" yaml:"records" toml:"records"`
		TotalCount int       `json:"total_count" yaml:"total_count" toml:"total_count"`
		CheckedAt  time.Time `json:"checked_at" yaml:"checked_at" toml:"checked_at"`
		Backend    string    `json:"backend" yaml:"backend" toml:"backend"`
	}
)

// String implements fmt.Stringer.
func (o Origin) String() string { return string(o) }

// IsValid reports whether o is one of the known origins.
func (o Origin) IsValid() bool {
	switch o {
	case OriginOfficial, OriginAUR, OriginFlakeInput, OriginServiceUnit:
		return true
	default:
		return false
	}
}

// ParseUnitAction maps the verb used by activation previews to a UnitAction.
func ParseUnitAction(verb string) (UnitAction, bool) {
	switch a := UnitAction(verb); a {
	case ActionStart, ActionRestart, ActionReload, ActionStop:
		return a, true
	default:
		return "", false
	}
}

// String renders the record as "name current -> new" for plain-text output.
func (r Record) String() string {
	if r.Origin == OriginServiceUnit {
		return fmt.Sprintf("%s (%s)", r.Name, r.Action)
	}
	if r.CurrentVersion == "" {
		return fmt.Sprintf("%s %s", r.Name, r.NewVersion)
	}
	return fmt.Sprintf("%s %s -> %s", r.Name, r.CurrentVersion, r.NewVersion)
}

// NewCheckResult stamps records into a CheckResult. A nil slice becomes an
// empty one so serialized results always carry a records array.
func NewCheckResult(backend string, records []Record, checkedAt time.Time) *CheckResult {
	if records == nil {
		records = []Record{}
	}
	return &CheckResult{
		Records:    records,
		TotalCount: len(records),
		CheckedAt:  checkedAt,
		Backend:    backend,
	}
}

// HasUpdates reports whether any record is pending.
func (r *CheckResult) HasUpdates() bool {
	return r != nil && r.TotalCount > 0
}

// CountByOrigin groups the record count by origin.
func (r *CheckResult) CountByOrigin() map[Origin]int {
	counts := make(map[Origin]int)
	if r == nil {
		return counts
	}
	for _, rec := range r.Records {
		counts[rec.Origin]++
	}
	return counts
}
