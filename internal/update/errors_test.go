// SPDX-License-Identifier: MPL-2.0

package update

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestErrorIsMatchesKindSentinel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind     Kind
		sentinel error
	}{
		{KindBackendUnavailable, ErrBackendUnavailable},
		{KindAlreadyLocked, ErrAlreadyLocked},
		{KindCommandExecutionFailed, ErrCommandExecutionFailed},
		{KindUnparseableOutput, ErrUnparseableOutput},
		{KindAuthorizationRequired, ErrAuthorizationRequired},
		{KindAuthorizationDenied, ErrAuthorizationDenied},
		{KindPreconditionMissing, ErrPreconditionMissing},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			t.Parallel()

			err := fmt.Errorf("wrapped: %w", NewError(tt.kind, "apt", "op", "", nil))
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
			if got := KindOf(err); got != tt.kind {
				t.Errorf("KindOf() = %v, want %v", got, tt.kind)
			}
			for _, other := range tests {
				if other.kind != tt.kind && errors.Is(err, other.sentinel) {
					t.Errorf("%v unexpectedly matches %v", tt.kind, other.sentinel)
				}
			}
		})
	}
}

func TestKindOfBareSentinelAndForeignErrors(t *testing.T) {
	t.Parallel()

	if got := KindOf(fmt.Errorf("ctx: %w", ErrAlreadyLocked)); got != KindAlreadyLocked {
		t.Errorf("KindOf(wrapped sentinel) = %v, want AlreadyLocked", got)
	}
	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Errorf("KindOf(foreign) = %v, want Unknown", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Errorf("KindOf(nil) = %v, want Unknown", got)
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("exec: \"dnf\": executable file not found in $PATH")
	err := NewError(KindBackendUnavailable, "dnf", "run dnf", "", cause)
	if !errors.Is(err, cause) {
		t.Error("Error should unwrap to its cause")
	}
}

func TestCommandFailedMessage(t *testing.T) {
	t.Parallel()

	err := CommandFailed("pacman", "run checkupdates", 1, "  ==> ERROR: Cannot fetch updates\n")
	msg := err.Error()
	for _, want := range []string{"pacman", "run checkupdates", "exit 1", "Cannot fetch updates"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q should contain %q", msg, want)
		}
	}
	if !IsTransient(err) {
		t.Error("command failures should be transient")
	}
	if IsTransient(NewError(KindUnparseableOutput, "pacman", "parse", "", nil)) {
		t.Error("parse failures must not be transient")
	}
}

func TestExcerptBoundsLength(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", maxStderrExcerpt*2)
	got := Excerpt(long)
	if len(got) != maxStderrExcerpt+len("...") {
		t.Errorf("len(Excerpt) = %d, want %d", len(got), maxStderrExcerpt+3)
	}
	if Excerpt("  short \n") != "short" {
		t.Errorf("Excerpt should trim whitespace")
	}
}

func TestExcerptKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	// "é" is two bytes; an odd prefix puts a rune across the byte limit.
	long := "x" + strings.Repeat("é", maxStderrExcerpt)
	got := Excerpt(long)
	if !utf8.ValidString(got) {
		t.Fatalf("Excerpt split a rune: %q", got)
	}
	body := strings.TrimSuffix(got, "...")
	if len(body) > maxStderrExcerpt || len(body) < maxStderrExcerpt-1 {
		t.Errorf("len(body) = %d, want within one byte of %d", len(body), maxStderrExcerpt)
	}
}
