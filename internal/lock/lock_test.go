// SPDX-License-Identifier: MPL-2.0

package lock

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPath(t *testing.T) {
	t.Parallel()

	env := map[string]string{"XDG_RUNTIME_DIR": "/run/user/1000"}
	if got := defaultPathWith(func(k string) string { return env[k] }, "pkgpulse"); got != "/run/user/1000/pkgpulse.lock" {
		t.Errorf("defaultPathWith() = %q", got)
	}

	got := defaultPathWith(func(string) string { return "" }, "pkgpulse")
	if got != filepath.Join(os.TempDir(), "pkgpulse.lock") {
		t.Errorf("defaultPathWith() fallback = %q", got)
	}
}

func TestReadHolder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		wantPID int
	}{
		{"own pid", "1\n", 1},
		{"empty", "", 0},
		{"garbage", "not-a-pid", 0},
		{"negative", "-5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(dir, tt.name+".lock")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			h := ReadHolder(path)
			if tt.wantPID == 0 {
				if h != nil {
					t.Errorf("ReadHolder() = %+v, want nil", h)
				}
				return
			}
			if h == nil || h.PID != tt.wantPID {
				t.Fatalf("ReadHolder() = %+v, want pid %d", h, tt.wantPID)
			}
			if !strings.Contains(h.String(), "pid 1") {
				t.Errorf("String() = %q", h.String())
			}
		})
	}

	if ReadHolder(filepath.Join(dir, "absent.lock")) != nil {
		t.Error("ReadHolder() of missing file should be nil")
	}
}
