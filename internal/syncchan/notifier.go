// SPDX-License-Identifier: MPL-2.0

package syncchan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dchest/safefile"
)

type (
	// Clock is the time source for the notifier and subscriber gate.
	Clock interface {
		Now() time.Time
	}

	systemClock struct{}

	// Notifier publishes check completions to the sync file.
	Notifier struct {
		path  string
		clock Clock
	}

	// NotifierOption configures a Notifier.
	NotifierOption func(*Notifier)
)

func (systemClock) Now() time.Time { return time.Now() }

// DefaultPath returns the sync file path for app under $XDG_RUNTIME_DIR,
// or the OS temp dir when the variable is unset.
func DefaultPath(app string) string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, app+".sync")
}

// WithNotifierClock sets the clock used for timestamps.
func WithNotifierClock(c Clock) NotifierOption {
	return func(n *Notifier) { n.clock = c }
}

// NewNotifier returns a Notifier writing to path.
func NewNotifier(path string, opts ...NotifierOption) *Notifier {
	n := &Notifier{path: path, clock: systemClock{}}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Path returns the sync file path.
func (n *Notifier) Path() string { return n.path }

// Notify writes the current time, never moving the stored timestamp
// backwards. The write is a temp file plus rename so watchers never observe
// a torn value.
func (n *Notifier) Notify() (time.Time, error) {
	stamp := n.clock.Now().Truncate(time.Second)
	if prev, err := ReadStamp(n.path); err == nil && prev.After(stamp) {
		stamp = prev
	}

	if err := os.MkdirAll(filepath.Dir(n.path), 0o700); err != nil {
		return time.Time{}, fmt.Errorf("create sync directory: %w", err)
	}
	data := []byte(strconv.FormatInt(stamp.Unix(), 10) + "\n")
	if err := safefile.WriteFile(n.path, data, 0o600); err != nil {
		return time.Time{}, fmt.Errorf("write sync file %s: %w", n.path, err)
	}
	return stamp, nil
}

// ReadStamp returns the timestamp stored at path. An empty file yields the
// zero time and no error.
func ReadStamp(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return time.Time{}, nil
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, errors.Join(fmt.Errorf("malformed sync file %s", path), err)
	}
	return time.Unix(secs, 0), nil
}
