// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/pkgpulse/pkgpulse/internal/update"
	"github.com/pkgpulse/pkgpulse/pkg/types"
)

const (
	// exitFailure is used for every error without a more specific code.
	exitFailure types.ExitCode = 1
	// exitBusy reports that another instance held the update lock (EX_TEMPFAIL).
	exitBusy types.ExitCode = 75
	// exitUpdatesAvailable is returned by `check --exit-code` when updates are pending.
	exitUpdatesAvailable types.ExitCode = 100
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeFor maps a failure to the process exit code.
func exitCodeFor(err error) types.ExitCode {
	if errors.Is(err, update.ErrAlreadyLocked) {
		return exitBusy
	}
	return exitFailure
}
