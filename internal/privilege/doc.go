// SPDX-License-Identifier: MPL-2.0

// Package privilege runs commands as root through a chain of escalation
// strategies.
//
// Every strategy probes whether it can work without interaction before it
// runs anything, so a missing agent or a sudo password prompt is reported as
// Unavailable instead of hanging a background check. The Chain tries
// strategies in order and implements runner.Runner.
package privilege
