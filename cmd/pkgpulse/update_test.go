// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkgpulse/pkgpulse/internal/testutil"
)

func TestUpdate_PrintsCommand(t *testing.T) {
	f := newCLIFixture(t, aptHost)

	res := f.execute(t, "update")
	if res.err != nil {
		t.Fatalf("update failed: %v", res.err)
	}
	if !strings.Contains(res.stdout, "sudo apt") {
		t.Errorf("stdout should show the apt update command:\n%s", res.stdout)
	}
	if strings.Contains(res.stdout, "rm -f") {
		t.Errorf("without --wait no marker cleanup belongs in the command:\n%s", res.stdout)
	}
}

func TestUpdate_WaitHoldsLockAndRechecks(t *testing.T) {
	f := newCLIFixture(t, aptHost)
	f.run.On("apt", testutil.Ok("Listing...\n"))
	markerDir := t.TempDir()
	lockPath := filepath.Join(f.cfg.RuntimeDir, "pkgpulse.lock")

	done := make(chan cliResult, 1)
	go func() {
		done <- f.execute(t, "update", "--wait", "--marker-dir", markerDir)
	}()

	var marker string
	deadline := time.Now().Add(5 * time.Second)
	for marker == "" && time.Now().Before(deadline) {
		matches, _ := filepath.Glob(filepath.Join(markerDir, "pkgpulse-update-*.marker"))
		if len(matches) > 0 {
			marker = matches[0]
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if marker == "" {
		t.Fatal("completion marker was never created")
	}

	if locked, _ := lockState(lockPath); !locked {
		t.Error("the update lock should be held while waiting for the update")
	}
	if f.run.CallCount("apt") != 0 {
		t.Error("no check should run before the update finished")
	}

	if err := os.Remove(marker); err != nil {
		t.Fatalf("remove marker: %v", err)
	}

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("update --wait failed: %v\n%s", res.err, res.stderr)
		}
		if !strings.Contains(res.stdout, "rm -f") || !strings.Contains(res.stdout, marker) {
			t.Errorf("the printed command should remove the marker:\n%s", res.stdout)
		}
		if !strings.Contains(res.stdout, "System is up to date") {
			t.Errorf("a re-check should follow the update:\n%s", res.stdout)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("update --wait did not return after the marker was removed")
	}

	if f.run.CallCount("apt") != 1 {
		t.Errorf("apt ran %d times, want 1 re-check", f.run.CallCount("apt"))
	}
	if locked, _ := lockState(lockPath); locked {
		t.Error("the update lock should be released after the re-check")
	}
}
