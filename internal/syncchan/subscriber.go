// SPDX-License-Identifier: MPL-2.0

package syncchan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// DefaultSettle coalesces the burst of events one atomic write produces.
	DefaultSettle = 100 * time.Millisecond
	// DefaultMinInterval is the minimum spacing of accepted changes.
	DefaultMinInterval = 10 * time.Second
)

type (
	// Config configures Subscribe.
	Config struct {
		Path string
		// Settle is the quiet period after the last raw event before the
		// burst counts as one change. Zero means DefaultSettle.
		Settle time.Duration
		// MinInterval drops changes that arrive sooner than this after the
		// last accepted change. Zero disables the gate.
		MinInterval time.Duration
		// IgnoreFirst drops the first accepted change, which is usually the
		// subscriber's own file creation or a check it just ran.
		IgnoreFirst bool
		// Clock drives the MinInterval gate. Nil means the system clock.
		Clock Clock
	}

	// Event reports an accepted change.
	Event struct {
		// Stamp is the timestamp read from the file; zero when unreadable.
		Stamp time.Time
		// Observed is when the change was accepted.
		Observed time.Time
	}

	// state is the subscriber's gate.
	state struct {
		lastObserved time.Time
		ignoreNext   bool
		minInterval  time.Duration
	}
)

// accept applies the min-interval gate and the ignore-first rule to a
// coalesced change observed at now.
func (s *state) accept(now time.Time) bool {
	if !s.lastObserved.IsZero() && s.minInterval > 0 && now.Sub(s.lastObserved) < s.minInterval {
		return false
	}
	s.lastObserved = now
	if s.ignoreNext {
		s.ignoreNext = false
		return false
	}
	return true
}

// Subscribe watches cfg.Path and delivers accepted changes until ctx is
// done. The directory is watched rather than the file because an atomic
// rename replaces the inode. The channel is closed when ctx is done or the
// watcher fails fatally.
func Subscribe(ctx context.Context, cfg Config) (<-chan Event, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("syncchan: empty path")
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}

	dir, name := filepath.Split(filepath.Clean(cfg.Path))
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("syncchan: create directory: %w", err)
	}
	if err := touch(cfg.Path); err != nil {
		return nil, fmt.Errorf("syncchan: create sync file: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("syncchan: create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("syncchan: watch %s: %w", dir, err)
	}

	events := make(chan Event, 1)
	s := &state{ignoreNext: cfg.IgnoreFirst, minInterval: cfg.MinInterval}
	go run(ctx, fsw, name, cfg, s, events)
	return events, nil
}

func run(ctx context.Context, fsw *fsnotify.Watcher, name string, cfg Config, s *state, out chan<- Event) {
	defer close(out)
	defer func() {
		if err := fsw.Close(); err != nil {
			slog.Debug("close fsnotify watcher", "error", err)
		}
	}()

	settle := time.NewTimer(cfg.Settle)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(evt.Name) != name {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}
			settle.Reset(cfg.Settle)

		case <-settle.C:
			now := cfg.Clock.Now()
			if !s.accept(now) {
				slog.Debug("sync change dropped", "path", cfg.Path)
				continue
			}
			stamp, err := ReadStamp(cfg.Path)
			if err != nil {
				slog.Debug("read sync stamp", "path", cfg.Path, "error", err)
			}
			select {
			case out <- Event{Stamp: stamp, Observed: now}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if isFatalWatchError(err) {
				slog.Warn("sync watcher stopped", "path", cfg.Path, "error", err)
				return
			}
			slog.Debug("sync watcher error", "path", cfg.Path, "error", err)
		}
	}
}

func touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	return f.Close()
}
