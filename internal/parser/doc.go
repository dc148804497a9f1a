// SPDX-License-Identifier: MPL-2.0

// Package parser turns backend command output into update records.
//
// Every command grammar pairs a line parser with an exit-code policy. The
// policy is consulted before stdout is inspected, because package managers
// disagree on what a nonzero status means: checkupdates exits 2 when nothing
// is pending, AUR helpers exit 1, and dnf exits 100 when updates exist.
//
// Output that cannot be understood is reported as update.ErrUnparseableOutput.
// It is never turned into an empty result.
package parser
