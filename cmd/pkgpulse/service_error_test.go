// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/pkgpulse/pkgpulse/internal/issue"
	"github.com/pkgpulse/pkgpulse/internal/update"
)

func TestNewServiceError_PanicsOnNilErr(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on nil Err, got none")
		}
		if msg, ok := r.(string); !ok || msg != "ServiceError: Err must not be nil" {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()

	newServiceError(nil, 0, "")
}

func TestServiceError_ErrorAndUnwrap(t *testing.T) {
	t.Parallel()

	underlying := errors.New("underlying error")
	svcErr := newServiceError(underlying, 0, "")

	if svcErr.Error() != "underlying error" {
		t.Errorf("Error() = %q, want %q", svcErr.Error(), "underlying error")
	}
	if !errors.Is(svcErr, underlying) {
		t.Error("errors.Is should find underlying error via Unwrap")
	}
}

func TestServiceErrorFor_LinksIssue(t *testing.T) {
	t.Parallel()

	err := update.NewError(update.KindPreconditionMissing, "nixos", "check flake inputs",
		"/etc/nixos/flake.lock not found", nil)
	svcErr := serviceErrorFor(err, "check for updates", false)

	if svcErr.IssueID != issue.FlakeLockMissingId {
		t.Errorf("IssueID = %d, want FlakeLockMissingId", svcErr.IssueID)
	}
	if !strings.Contains(svcErr.StyledMessage, "nix flake lock") {
		t.Errorf("styled message should carry the suggestion:\n%s", svcErr.StyledMessage)
	}
	if !errors.Is(svcErr, update.ErrPreconditionMissing) {
		t.Error("ServiceError should unwrap to the check error")
	}
}

func TestRenderServiceError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderServiceError(&buf, newServiceError(errors.New("boom"), 0, "styled boom\n"), true)
	if buf.String() != "styled boom\n" {
		t.Errorf("without an issue only the styled message is rendered, got %q", buf.String())
	}

	buf.Reset()
	renderServiceError(&buf, newServiceError(errors.New("boom"), issue.AlreadyRunningId, "styled\n"), false)
	if buf.String() != "styled\n" {
		t.Errorf("issue help should be skipped unless requested, got %q", buf.String())
	}

	buf.Reset()
	renderServiceError(&buf, nil, true)
	if buf.Len() != 0 {
		t.Error("nil ServiceError should render nothing")
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	busy := update.NewError(update.KindAlreadyLocked, "", "acquire lock", "", nil)
	if got := exitCodeFor(busy); got != exitBusy {
		t.Errorf("exitCodeFor(locked) = %d, want %d", got, exitBusy)
	}
	if got := exitCodeFor(errors.New("x")); got != exitFailure {
		t.Errorf("exitCodeFor(other) = %d, want %d", got, exitFailure)
	}

	e := &ExitError{Code: exitUpdatesAvailable}
	if e.Error() != "exit status 100" {
		t.Errorf("ExitError.Error() = %q", e.Error())
	}
}
