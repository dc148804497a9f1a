// SPDX-License-Identifier: MPL-2.0

package update

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// KindUnknown classifies errors that did not originate in the check pipeline.
	KindUnknown Kind = iota
	KindBackendUnavailable
	KindAlreadyLocked
	KindCommandExecutionFailed
	KindUnparseableOutput
	KindAuthorizationRequired
	KindAuthorizationDenied
	KindPreconditionMissing
)

// maxStderrExcerpt bounds how much command stderr is carried in an Error.
const maxStderrExcerpt = 512

var (
	// ErrBackendUnavailable is returned when no usable package manager was found.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrAlreadyLocked is returned when another instance holds the coordination lock.
	ErrAlreadyLocked = errors.New("another check or update is already running")
	// ErrCommandExecutionFailed is returned when a backend command could not run or failed.
	ErrCommandExecutionFailed = errors.New("command execution failed")
	// ErrUnparseableOutput is returned when command output does not match the expected grammar.
	ErrUnparseableOutput = errors.New("unparseable output")
	// ErrAuthorizationRequired is returned when no privilege strategy can run without setup.
	ErrAuthorizationRequired = errors.New("authorization required")
	// ErrAuthorizationDenied is returned when the user refused or failed authentication.
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrPreconditionMissing is returned when a required artifact is absent.
	ErrPreconditionMissing = errors.New("precondition missing")

	kindSentinels = map[Kind]error{
		KindBackendUnavailable:     ErrBackendUnavailable,
		KindAlreadyLocked:          ErrAlreadyLocked,
		KindCommandExecutionFailed: ErrCommandExecutionFailed,
		KindUnparseableOutput:      ErrUnparseableOutput,
		KindAuthorizationRequired:  ErrAuthorizationRequired,
		KindAuthorizationDenied:    ErrAuthorizationDenied,
		KindPreconditionMissing:    ErrPreconditionMissing,
	}
)

type (
	// Kind classifies check pipeline failures.
	Kind int

	// Error is the typed failure of a check pipeline stage.
	//
	// errors.Is(err, ErrX) matches the sentinel for Kind; errors.As exposes the
	// backend, operation and exit code for diagnostics.
	Error struct {
		Kind    Kind
		Backend string
		// Op names the stage, e.g. "run checkupdates" or "parse dnf output".
		Op string
		// Detail is a human-readable explanation; stderr excerpts land here.
		Detail string
		// ExitCode is the command exit status, or -1 when not applicable.
		ExitCode int
		Err      error
	}
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBackendUnavailable:
		return "BackendUnavailable"
	case KindAlreadyLocked:
		return "AlreadyLocked"
	case KindCommandExecutionFailed:
		return "CommandExecutionFailed"
	case KindUnparseableOutput:
		return "UnparseableOutput"
	case KindAuthorizationRequired:
		return "AuthorizationRequired"
	case KindAuthorizationDenied:
		return "AuthorizationDenied"
	case KindPreconditionMissing:
		return "PreconditionMissing"
	default:
		return "Unknown"
	}
}

// Sentinel returns the sentinel error for k, or nil for KindUnknown.
func (k Kind) Sentinel() error {
	return kindSentinels[k]
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	if e.Backend != "" {
		sb.WriteString(e.Backend)
		sb.WriteString(": ")
	}
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	if s := e.Kind.Sentinel(); s != nil {
		sb.WriteString(s.Error())
	} else {
		sb.WriteString("check failed")
	}
	if e.ExitCode > 0 {
		sb.WriteString(" (exit ")
		sb.WriteString(strconv.Itoa(e.ExitCode))
		sb.WriteString(")")
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// NewError builds an Error with no exit code.
func NewError(kind Kind, backend, op, detail string, cause error) *Error {
	return &Error{Kind: kind, Backend: backend, Op: op, Detail: detail, ExitCode: -1, Err: cause}
}

// CommandFailed builds a KindCommandExecutionFailed error carrying a bounded
// excerpt of stderr.
func CommandFailed(backend, op string, exitCode int, stderr string) *Error {
	return &Error{
		Kind:     KindCommandExecutionFailed,
		Backend:  backend,
		Op:       op,
		Detail:   Excerpt(stderr),
		ExitCode: exitCode,
	}
}

// KindOf classifies any error. Errors outside the taxonomy are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for k, s := range kindSentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return KindUnknown
}

// IsTransient reports whether a failure may succeed when retried once.
// Only execution failures qualify; parse, authorization and precondition
// failures are deterministic.
func IsTransient(err error) bool {
	return KindOf(err) == KindCommandExecutionFailed
}

// Excerpt trims s and bounds it for inclusion in error messages. The cut
// never splits a UTF-8 sequence.
func Excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxStderrExcerpt {
		return s
	}
	cut := maxStderrExcerpt
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
