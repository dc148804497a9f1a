// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"testing"

	"github.com/pkgpulse/pkgpulse/internal/update"
)

func TestParseArchFields(t *testing.T) {
	t.Parallel()

	recs, unknown := parseArch("linux 6.1.0-1 -> 6.2.0-1\nfirefox 120.0-1\n", update.OriginOfficial)
	if len(unknown) != 0 || len(recs) != 2 {
		t.Fatalf("recs = %v, unknown = %v", recs, unknown)
	}
	if recs[0] != (update.Record{Name: "linux", CurrentVersion: "6.1.0-1", NewVersion: "6.2.0-1", Origin: update.OriginOfficial}) {
		t.Errorf("arrow line = %+v", recs[0])
	}
	if recs[1].CurrentVersion != "" || recs[1].NewVersion != "120.0-1" {
		t.Errorf("version-less line = %+v", recs[1])
	}
}

func TestParseAptFields(t *testing.T) {
	t.Parallel()

	recs, _ := parseApt("firefox/jammy-updates 120.0 amd64 [upgradable from: 119.0]\n", update.OriginOfficial)
	if len(recs) != 1 {
		t.Fatalf("recs = %v", recs)
	}
	if recs[0].Name != "firefox" || recs[0].NewVersion != "120.0" || recs[0].CurrentVersion != "119.0" {
		t.Errorf("record = %+v", recs[0])
	}
}

func TestParseDnfWrappedName(t *testing.T) {
	t.Parallel()

	out := "texlive-collection-latexrecommended.noarch\n" +
		"                         9:svn54074-76.fc38     updates\n" +
		"kernel.x86_64            6.5.0-1.fc38           updates\n" +
		"Obsoleting Packages\n" +
		"grub2-tools.x86_64       1:2.06-100.fc38        updates\n" +
		"    grub2-tools.x86_64   1:2.06-95.fc38         @updates\n"

	recs, unknown := parseDnf(out, update.OriginOfficial)
	if len(unknown) != 0 {
		t.Errorf("unknown = %v", unknown)
	}
	if len(recs) != 2 {
		t.Fatalf("recs = %v", recs)
	}
	if recs[0].Name != "texlive-collection-latexrecommended" || recs[0].NewVersion != "9:svn54074-76.fc38" {
		t.Errorf("wrapped record = %+v", recs[0])
	}
	if recs[1].Name != "kernel" {
		t.Errorf("record = %+v", recs[1])
	}
}

func TestParseZypperCompactLayout(t *testing.T) {
	t.Parallel()

	recs, unknown := parseZypper("v | firefox | package | 120.0-1.1 | x86_64\n", update.OriginOfficial)
	if len(unknown) != 0 || len(recs) != 1 {
		t.Fatalf("recs = %v, unknown = %v", recs, unknown)
	}
	if recs[0].Name != "firefox" || recs[0].NewVersion != "120.0-1.1" || recs[0].CurrentVersion != "" {
		t.Errorf("record = %+v", recs[0])
	}
}

func TestParseZypperHeaderColumns(t *testing.T) {
	t.Parallel()

	out := "S | Repository | Name | Current Version | Available Version | Arch\n" +
		"--+------------+------+-----------------+-------------------+-------\n" +
		"v | repo-oss   | vim  | 9.0-1.1         | 9.1-1.1           | x86_64\n"
	recs, _ := parseZypper(out, update.OriginOfficial)
	if len(recs) != 1 {
		t.Fatalf("recs = %v", recs)
	}
	want := update.Record{Name: "vim", CurrentVersion: "9.0-1.1", NewVersion: "9.1-1.1", Origin: update.OriginOfficial}
	if recs[0] != want {
		t.Errorf("record = %+v, want %+v", recs[0], want)
	}
}

func TestSplitApkPackage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, name, version string
		ok                bool
	}{
		{"busybox-1.36.1-r5", "busybox", "1.36.1-r5", true},
		{"py3-setuptools-68.2.2-r0", "py3-setuptools", "68.2.2-r0", true},
		{"lib2fa-0.9-r1", "lib2fa", "0.9-r1", true},
		{"nodash", "", "", false},
	}
	for _, tt := range tests {
		name, version, ok := splitApkPackage(tt.in)
		if name != tt.name || version != tt.version || ok != tt.ok {
			t.Errorf("splitApkPackage(%q) = %q, %q, %v", tt.in, name, version, ok)
		}
	}
}

func TestParseApkCurrentVersion(t *testing.T) {
	t.Parallel()

	recs, _ := parseApk("busybox-1.36.1-r5 x86_64 {busybox} (GPL-2.0-only) [upgradable from: busybox-1.36.1-r4]\n", update.OriginOfficial)
	if len(recs) != 1 || recs[0].CurrentVersion != "1.36.1-r4" || recs[0].NewVersion != "1.36.1-r5" {
		t.Errorf("recs = %+v", recs)
	}
}

func TestParseFlatpakVariants(t *testing.T) {
	t.Parallel()

	out := "Name\tApplication ID\tVersion\tBranch\tOrigin\n" +
		"Firefox\torg.mozilla.firefox\t121.0\tstable\tflathub\n" +
		"Mesa\torg.freedesktop.Platform.GL.default\t\t23.08\tflathub\n" +
		"org.gnome.Platform\n"
	recs, unknown := parseFlatpak(out, update.OriginOfficial)
	if len(unknown) != 0 || len(recs) != 3 {
		t.Fatalf("recs = %v, unknown = %v", recs, unknown)
	}
	if recs[0].Name != "org.mozilla.firefox" || recs[0].NewVersion != "121.0" {
		t.Errorf("tabbed record = %+v", recs[0])
	}
	if recs[1].NewVersion != flatpakLatest || recs[2].NewVersion != flatpakLatest {
		t.Errorf("version-less records = %+v, %+v", recs[1], recs[2])
	}
}
