// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

// XDGDirs are per-test replacements for the user's runtime and config dirs.
type XDGDirs struct {
	Runtime string
	Config  string
}

// SetXDGDirs points XDG_RUNTIME_DIR and XDG_CONFIG_HOME at fresh temporary
// directories for the duration of the test. Tests using it cannot run in
// parallel.
func SetXDGDirs(t *testing.T) XDGDirs {
	t.Helper()
	root := t.TempDir()
	dirs := XDGDirs{
		Runtime: filepath.Join(root, "run"),
		Config:  filepath.Join(root, "config"),
	}
	MustMkdirAll(t, dirs.Runtime)
	MustMkdirAll(t, dirs.Config)
	t.Setenv("XDG_RUNTIME_DIR", dirs.Runtime)
	t.Setenv("XDG_CONFIG_HOME", dirs.Config)
	return dirs
}
