// SPDX-License-Identifier: MPL-2.0

package parser

import "github.com/pkgpulse/pkgpulse/pkg/types"

const (
	// OutcomeParse parses stdout; zero records is a valid "no updates" only
	// when stdout held nothing but recognized noise.
	OutcomeParse Outcome = iota
	// OutcomeRecords means the backend signaled pending updates: at least one
	// record must parse.
	OutcomeRecords
	// OutcomeEmpty means the backend signaled "no updates".
	OutcomeEmpty
	// OutcomeError means the command failed.
	OutcomeError
)

type (
	// Outcome is what an exit code means for a given command.
	Outcome int

	// Policy maps exit codes to outcomes. Exit 0 defaults to OutcomeParse and
	// any other unlisted code to OutcomeError.
	Policy map[types.ExitCode]Outcome
)

var (
	checkupdatesPolicy = Policy{2: OutcomeEmpty}
	aurHelperPolicy    = Policy{1: OutcomeEmpty}
	aptPolicy          = Policy{}
	// dnf check-update: 0 = nothing to do, 100 = updates available.
	dnfPolicy = Policy{0: OutcomeEmpty, 100: OutcomeRecords}
	// zypper informational codes 100-103 and 106 (some repositories skipped)
	// still come with a usable table.
	zypperPolicy  = Policy{100: OutcomeParse, 101: OutcomeParse, 102: OutcomeParse, 103: OutcomeParse, 106: OutcomeParse}
	apkPolicy     = Policy{}
	flatpakPolicy = Policy{}
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeParse:
		return "parse"
	case OutcomeRecords:
		return "records"
	case OutcomeEmpty:
		return "empty"
	default:
		return "error"
	}
}

// Outcome returns the outcome for code.
func (p Policy) Outcome(code types.ExitCode) Outcome {
	if o, ok := p[code]; ok {
		return o
	}
	if code == 0 {
		return OutcomeParse
	}
	return OutcomeError
}
