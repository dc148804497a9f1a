// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"

	"github.com/pkgpulse/pkgpulse/internal/lock"
	"github.com/pkgpulse/pkgpulse/internal/update"
)

// FromCheckError wraps a check pipeline failure with suggestions and the
// matching catalog entry. Errors outside the taxonomy are wrapped without
// suggestions.
func FromCheckError(err error, operation string) *ActionableError {
	if err == nil {
		return nil
	}
	ctx := NewErrorContext().WithOperation(operation).Wrap(err)
	if is := ForError(err); is != nil {
		ctx.WithIssue(is.Id())
	}

	var uerr *update.Error
	if errors.As(err, &uerr) && uerr.Backend != "" {
		ctx.WithResource(uerr.Backend)
	}

	switch update.KindOf(err) {
	case update.KindAlreadyLocked:
		ctx.WithSuggestion("Another pkgpulse instance is busy; retry shortly")
		var lockErr *lock.AlreadyLockedError
		if errors.As(err, &lockErr) && lockErr.Holder != nil {
			ctx.WithSuggestionf("The lock is held by %s", lockErr.Holder)
		}
	case update.KindBackendUnavailable:
		ctx.WithSuggestion("Run 'pkgpulse backends' to see what was detected")
	case update.KindAuthorizationRequired:
		ctx.WithSuggestions(
			"Install polkit and an authentication agent",
			"Or add a sudoers rule: %wheel ALL=(ALL) NOPASSWD: /run/current-system/sw/bin/nixos-rebuild",
		)
	case update.KindAuthorizationDenied:
		ctx.WithSuggestion("Retry and complete the authentication dialog")
	case update.KindPreconditionMissing:
		ctx.WithSuggestion("Run 'nix flake lock' in your configuration directory")
	case update.KindUnparseableOutput:
		ctx.WithSuggestion("Re-run with --verbose to log the unrecognized lines")
	case update.KindCommandExecutionFailed:
		ctx.WithSuggestion("Check your network and mirrors, then retry")
	}
	return ctx.Build()
}
