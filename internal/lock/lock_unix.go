// SPDX-License-Identifier: MPL-2.0

//go:build unix

package lock

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// Acquire takes the lock at path without blocking. The file is created if
// missing and never truncated before the flock is held, so a losing
// contender cannot wipe the holder's PID.
func Acquire(path string) (*Handle, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, &AlreadyLockedError{Path: path, Holder: ReadHolder(path)}
		}
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}

	h := &Handle{path: path, file: f}
	if err := writePID(f); err != nil {
		slog.Debug("lock pid write failed", "path", path, "error", err)
	}
	return h, nil
}

func writePID(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	return err
}

// Release unlocks and closes the lock file. Safe to call more than once and
// on a nil handle.
func (h *Handle) Release() {
	if h == nil || h.file == nil {
		return
	}
	if err := unix.Flock(int(h.file.Fd()), unix.LOCK_UN); err != nil {
		slog.Debug("flock unlock failed", "path", h.path, "error", err)
	}
	if err := h.file.Close(); err != nil {
		slog.Debug("lock file close failed", "path", h.path, "error", err)
	}
	h.file = nil
}
