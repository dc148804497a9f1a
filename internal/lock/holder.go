// SPDX-License-Identifier: MPL-2.0

package lock

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	ps "github.com/mitchellh/go-ps"
)

// Holder describes the process that last wrote its PID into a lock file.
// It is informational only: the PID may be stale or reused.
type Holder struct {
	PID        int
	Executable string
}

// String implements fmt.Stringer.
func (h *Holder) String() string {
	if h.Executable == "" {
		return fmt.Sprintf("pid %d", h.PID)
	}
	return fmt.Sprintf("%s (pid %d)", h.Executable, h.PID)
}

// ReadHolder returns the recorded holder of the lock at path, or nil when the
// file is missing, empty, or malformed.
func ReadHolder(path string) *Holder {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return nil
	}

	h := &Holder{PID: pid}
	if proc, err := ps.FindProcess(pid); err == nil && proc != nil {
		h.Executable = proc.Executable()
	}
	return h
}
