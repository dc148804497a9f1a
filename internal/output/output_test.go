// SPDX-License-Identifier: MPL-2.0

package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/update"
)

var checkedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleResult() *update.CheckResult {
	return update.NewCheckResult("paru", []update.Record{
		{Name: "linux", CurrentVersion: "6.7.4.arch1-1", NewVersion: "6.7.5.arch1-1", Origin: update.OriginOfficial},
		{Name: "visual-studio-code-bin", CurrentVersion: "1.86.0-1", NewVersion: "1.86.1-1", Origin: update.OriginAUR},
	}, checkedAt)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"text", FormatText},
		{"JSON", FormatJSON},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
		{" toml ", FormatTOML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Errorf("ParseFormat(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	_, err := ParseFormat("xml")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(xml) should wrap ErrUnknownFormat, got %v", err)
	}
}

func TestWriter_CheckReportJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatJSON).Write(NewCheckReport(sampleResult())); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	var got struct {
		Backend    string          `json:"backend"`
		TotalCount int             `json:"total_count"`
		CheckedAt  time.Time       `json:"checked_at"`
		Records    []update.Record `json:"records"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got.Backend != "paru" || got.TotalCount != 2 || len(got.Records) != 2 {
		t.Errorf("unexpected JSON document: %+v", got)
	}
	if !got.CheckedAt.Equal(checkedAt) {
		t.Errorf("checked_at = %v, want %v", got.CheckedAt, checkedAt)
	}
	if got.Records[1].Origin != update.OriginAUR {
		t.Errorf("second record origin = %q, want aur", got.Records[1].Origin)
	}
}

func TestWriter_EmptyCheckReportKeepsRecordsArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	res := update.NewCheckResult("apt", nil, checkedAt)
	if err := NewWriter(&buf, FormatJSON).Write(NewCheckReport(res)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"records": []`) {
		t.Errorf("empty result should serialize an empty records array:\n%s", buf.String())
	}
}

func TestWriter_CheckReportYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatYAML).Write(NewCheckReport(sampleResult())); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if got["backend"] != "paru" {
		t.Errorf("backend = %v, want paru", got["backend"])
	}
	if got["total_count"] != 2 {
		t.Errorf("total_count = %v, want 2", got["total_count"])
	}
}

func TestWriter_CheckReportTOML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatTOML).Write(NewCheckReport(sampleResult())); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	var got struct {
		Backend string          `toml:"backend"`
		Records []update.Record `toml:"records"`
	}
	if err := toml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not TOML: %v\n%s", err, buf.String())
	}
	if got.Backend != "paru" || len(got.Records) != 2 || got.Records[0].Name != "linux" {
		t.Errorf("unexpected TOML document: %+v", got)
	}
}

func TestCheckReport_Text(t *testing.T) {
	t.Parallel()

	out := NewCheckReport(sampleResult()).String()
	for _, want := range []string{"2 updates available", "paru", "linux", "6.7.5.arch1-1", "visual-studio-code-bin", "aur"} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestCheckReport_TextUpToDate(t *testing.T) {
	t.Parallel()

	out := NewCheckReport(update.NewCheckResult("dnf", nil, checkedAt)).String()
	if !strings.HasPrefix(out, "System is up to date") {
		t.Errorf("unexpected text for empty result: %q", out)
	}
	if !strings.Contains(out, "dnf") {
		t.Errorf("text should name the backend: %q", out)
	}
}

func TestCheckReport_TextServiceUnitShowsAction(t *testing.T) {
	t.Parallel()

	res := update.NewCheckResult("nixos", []update.Record{
		{Name: "sshd.service", NewVersion: "restart", Origin: update.OriginServiceUnit, Action: update.ActionRestart},
	}, checkedAt)
	out := NewCheckReport(res).String()
	if !strings.Contains(out, "1 update available") {
		t.Errorf("singular summary expected:\n%s", out)
	}
	if !strings.Contains(out, "restart") || !strings.Contains(out, "service-unit") {
		t.Errorf("service unit row should show its action and source:\n%s", out)
	}
}

func TestNewCheckReport_Nil(t *testing.T) {
	t.Parallel()

	r := NewCheckReport(nil)
	if r.Records == nil || r.TotalCount != 0 {
		t.Errorf("nil result should render as an empty report, got %+v", r)
	}
}

func TestBackendReport(t *testing.T) {
	t.Parallel()

	entries := []backend.Entry{
		{Kind: backend.Paru, Path: "/usr/bin/paru", Available: true},
		{Kind: backend.Pacman, Path: "/usr/bin/pacman", Reason: "checkupdates not found (install pacman-contrib)"},
	}
	r := NewBackendReport(entries, backend.Paru)

	if !r.Backends[0].Selected || r.Backends[1].Selected {
		t.Errorf("only paru should be selected: %+v", r.Backends)
	}
	if !r.Backends[0].SupportsAUR {
		t.Error("paru should advertise AUR support")
	}

	out := r.String()
	for _, want := range []string{"paru *", "available", "unavailable", "aur", "pacman-contrib"} {
		if !strings.Contains(out, want) {
			t.Errorf("backend table missing %q:\n%s", want, out)
		}
	}

	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatTOML).Write(r); err != nil {
		t.Fatalf("TOML write error: %v", err)
	}
	var back BackendReport
	if err := toml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("backend TOML does not parse: %v\n%s", err, buf.String())
	}
	if len(back.Backends) != 2 || back.Backends[1].Reason == "" {
		t.Errorf("unexpected round trip: %+v", back)
	}
}

func TestPlanReport_Text(t *testing.T) {
	t.Parallel()

	out := PlanReport{Backend: "apt", Command: "sudo apt update && sudo apt upgrade", MarkerPath: "/run/user/1000/m"}.String()
	if !strings.Contains(out, "  sudo apt update && sudo apt upgrade") {
		t.Errorf("plan text should show the indented command:\n%s", out)
	}
	if !strings.Contains(out, "/run/user/1000/m") {
		t.Errorf("plan text should show the marker:\n%s", out)
	}
}

func TestStatusReport(t *testing.T) {
	t.Parallel()

	out := StatusReport{LockPath: "/run/pkgpulse.lock", SyncPath: "/run/pkgpulse.sync"}.String()
	if !strings.Contains(out, "free") || !strings.Contains(out, "never") {
		t.Errorf("idle status text unexpected:\n%s", out)
	}

	last := checkedAt
	r := StatusReport{Locked: true, HolderPID: 42, HolderName: "pkgpulse", LastSync: &last}
	if out := r.String(); !strings.Contains(out, "held by pkgpulse (pid 42)") {
		t.Errorf("held status text unexpected:\n%s", out)
	}

	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatJSON).Write(StatusReport{LockPath: "/l"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "last_sync") {
		t.Errorf("unset last_sync should be omitted:\n%s", buf.String())
	}
}

func TestWriter_TextFallsBackToValue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatText).Write(struct{ A int }{A: 1}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{A:1}\n" {
		t.Errorf("unexpected fallback text %q", buf.String())
	}
}
