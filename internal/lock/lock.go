// SPDX-License-Identifier: MPL-2.0

package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkgpulse/pkgpulse/internal/update"
)

// ErrUnsupported is returned on platforms without flock.
var ErrUnsupported = errors.New("coordination lock not supported on this platform")

type (
	// Handle is an acquired lock. The zero value and nil are released handles.
	Handle struct {
		path string
		file *os.File
	}

	// AlreadyLockedError is returned when another process holds the lock.
	AlreadyLockedError struct {
		Path string
		// Holder is best-effort diagnostics; nil when the holder is unknown.
		Holder *Holder
	}
)

// Error implements the error interface.
func (e *AlreadyLockedError) Error() string {
	if e.Holder != nil {
		return fmt.Sprintf("%s (held by %s via %s)", update.ErrAlreadyLocked, e.Holder, e.Path)
	}
	return fmt.Sprintf("%s (lock %s)", update.ErrAlreadyLocked, e.Path)
}

// Unwrap returns update.ErrAlreadyLocked for errors.Is.
func (e *AlreadyLockedError) Unwrap() error { return update.ErrAlreadyLocked }

// DefaultPath returns the lock path for app. It prefers $XDG_RUNTIME_DIR and
// falls back to the OS temp dir.
func DefaultPath(app string) string {
	return defaultPathWith(os.Getenv, app)
}

func defaultPathWith(getenv func(string) string, app string) string {
	dir := getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, app+".lock")
}

// Path returns the lock file path, or "" for a nil handle.
func (h *Handle) Path() string {
	if h == nil {
		return ""
	}
	return h.path
}
