// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package syncchan

import (
	"errors"
	"syscall"
)

// isFatalWatchError reports inotify resource exhaustion, after which the
// watcher cannot deliver further events.
func isFatalWatchError(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
