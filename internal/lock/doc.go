// SPDX-License-Identifier: MPL-2.0

// Package lock provides the cross-process coordination lock that keeps two
// instances from checking for or applying updates at the same time.
//
// The lock is an advisory flock on a well-known file. Acquisition never
// blocks: a held lock is reported as *AlreadyLockedError so the caller can
// tell the user to retry shortly. The kernel drops the flock when the holder
// exits, so a stale file left behind by a crash does not wedge later runs.
package lock
