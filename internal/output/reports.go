// SPDX-License-Identifier: MPL-2.0

package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/update"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

type (
	// CheckReport renders an update.CheckResult.
	CheckReport update.CheckResult

	// BackendInfo is one row of a BackendReport.
	BackendInfo struct {
		Kind              string `json:"kind" yaml:"kind" toml:"kind"`
		Available         bool   `json:"available" yaml:"available" toml:"available"`
		Selected          bool   `json:"selected" yaml:"selected" toml:"selected"`
		Path              string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
		Reason            string `json:"reason,omitempty" yaml:"reason,omitempty" toml:"reason,omitempty"`
		SupportsAUR       bool   `json:"supports_aur" yaml:"supports_aur" toml:"supports_aur"`
		RequiresPrivilege bool   `json:"requires_privilege" yaml:"requires_privilege" toml:"requires_privilege"`
	}

	// BackendReport lists probed backends.
	BackendReport struct {
		Backends []BackendInfo `json:"backends" yaml:"backends" toml:"backends"`
	}

	// PlanReport describes an update the user has to run.
	PlanReport struct {
		Backend    string `json:"backend" yaml:"backend" toml:"backend"`
		Command    string `json:"command" yaml:"command" toml:"command"`
		MarkerPath string `json:"marker_path,omitempty" yaml:"marker_path,omitempty" toml:"marker_path,omitempty"`
	}

	// StatusReport describes the update lock and the last peer notification.
	StatusReport struct {
		LockPath   string     `json:"lock_path" yaml:"lock_path" toml:"lock_path"`
		Locked     bool       `json:"locked" yaml:"locked" toml:"locked"`
		HolderPID  int        `json:"holder_pid,omitempty" yaml:"holder_pid,omitempty" toml:"holder_pid,omitempty"`
		HolderName string     `json:"holder_name,omitempty" yaml:"holder_name,omitempty" toml:"holder_name,omitempty"`
		SyncPath   string     `json:"sync_path" yaml:"sync_path" toml:"sync_path"`
		LastSync   *time.Time `json:"last_sync,omitempty" yaml:"last_sync,omitempty" toml:"last_sync,omitempty"`
	}
)

// NewCheckReport wraps res for rendering.
func NewCheckReport(res *update.CheckResult) CheckReport {
	if res == nil {
		return CheckReport(*update.NewCheckResult("", nil, time.Time{}))
	}
	return CheckReport(*res)
}

// String renders a summary line followed by a table of records.
func (r CheckReport) String() string {
	checked := r.CheckedAt.Local().Format(timeLayout)
	if r.TotalCount == 0 {
		return fmt.Sprintf("System is up to date %s", dimStyle.Render(fmt.Sprintf("(%s, checked %s)", r.Backend, checked)))
	}

	noun := "updates"
	if r.TotalCount == 1 {
		noun = "update"
	}
	summary := fmt.Sprintf("%d %s available %s", r.TotalCount, noun,
		dimStyle.Render(fmt.Sprintf("(%s, checked %s)", r.Backend, checked)))

	rows := make([][]string, 0, len(r.Records))
	for _, rec := range r.Records {
		newVersion := rec.NewVersion
		if rec.Origin == update.OriginServiceUnit && rec.Action != "" {
			newVersion = string(rec.Action)
		}
		rows = append(rows, []string{rec.Name, orDash(rec.CurrentVersion), newVersion, rec.Origin.String()})
	}

	return summary + "\n" + renderTable([]string{"NAME", "CURRENT", "NEW", "SOURCE"}, rows)
}

// NewBackendReport builds a report from probed entries. selected marks the
// backend a check would use, and may be empty.
func NewBackendReport(entries []backend.Entry, selected backend.Kind) BackendReport {
	infos := make([]BackendInfo, 0, len(entries))
	for _, e := range entries {
		caps := e.Kind.Capabilities()
		infos = append(infos, BackendInfo{
			Kind:              e.Kind.String(),
			Available:         e.Available,
			Selected:          selected != "" && e.Kind == selected,
			Path:              e.Path,
			Reason:            e.Reason,
			SupportsAUR:       caps.SupportsAUR,
			RequiresPrivilege: caps.RequiresPrivilege,
		})
	}
	return BackendReport{Backends: infos}
}

// String renders one row per backend.
func (r BackendReport) String() string {
	rows := make([][]string, 0, len(r.Backends))
	for _, b := range r.Backends {
		kind := b.Kind
		if b.Selected {
			kind += " *"
		}
		status := "available"
		if !b.Available {
			status = "unavailable"
		}
		var flags []string
		if b.SupportsAUR {
			flags = append(flags, "aur")
		}
		if b.RequiresPrivilege {
			flags = append(flags, "privileged")
		}
		detail := b.Path
		if b.Reason != "" {
			detail = b.Reason
		}
		rows = append(rows, []string{kind, status, orDash(strings.Join(flags, ",")), orDash(detail)})
	}
	return renderTable([]string{"BACKEND", "STATUS", "FLAGS", "DETAIL"}, rows)
}

// String renders the command the user should run.
func (r PlanReport) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run the following %s update in a terminal:\n\n", r.Backend))
	sb.WriteString("  " + r.Command + "\n")
	if r.MarkerPath != "" {
		sb.WriteString("\n" + dimStyle.Render("completion marker: "+r.MarkerPath))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// String renders the lock and sync state.
func (r StatusReport) String() string {
	lock := "free"
	if r.Locked {
		lock = "held"
		if r.HolderPID > 0 {
			lock = fmt.Sprintf("held by %s (pid %d)", orDash(r.HolderName), r.HolderPID)
		}
	}
	last := "never"
	if r.LastSync != nil {
		last = r.LastSync.Local().Format(timeLayout)
	}
	rows := [][]string{
		{"update lock", lock},
		{"lock file", r.LockPath},
		{"last sync", last},
		{"sync file", r.SyncPath},
	}
	return renderTable(nil, rows)
}

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.PaddingRight(2)
			}
			return cellStyle
		}).
		Rows(rows...)
	if len(headers) > 0 {
		t = t.Headers(headers...)
	}
	return t.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
