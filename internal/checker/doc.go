// SPDX-License-Identifier: MPL-2.0

// Package checker orchestrates an update check: it resolves the backend,
// takes the coordination lock, runs the check commands (escalating when
// needed), parses their output and tells peer instances the check finished.
//
// It also plans updates. The checker never runs an update itself; it hands
// back the command for the user's terminal plus a completion marker the
// terminal removes on exit.
package checker
