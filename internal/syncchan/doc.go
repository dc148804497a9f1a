// SPDX-License-Identifier: MPL-2.0

// Package syncchan lets instances tell each other that a check finished.
//
// The channel is a single file holding a unix timestamp. A finished check
// rewrites it atomically; every other instance watches the file and re-runs
// its own check when the timestamp moves. Delivery is best-effort and
// at-least-once: the contents are never used for anything but "something
// changed".
package syncchan
