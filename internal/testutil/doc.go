// SPDX-License-Identifier: MPL-2.0

// Package testutil holds test doubles shared across packages: a controllable
// clock, a scripted command runner, and filesystem helpers that fail the test
// instead of returning errors.
package testutil
