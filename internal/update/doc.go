// SPDX-License-Identifier: MPL-2.0

// Package update defines the normalized result of an update check and the
// error taxonomy shared by every stage of the check pipeline.
//
// A CheckResult is only ever produced after a command ran and its output
// parsed successfully. Failures are reported as *Error values classified by
// Kind; callers match them with errors.Is against the Err* sentinels.
package update
