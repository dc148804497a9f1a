// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pkgpulse/pkgpulse/internal/config"
)

// newLogHandler returns a charmbracelet/log logger, usable as a slog.Handler.
func newLogHandler(w io.Writer, verbose bool, level config.LogLevel, timestamps bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          config.AppName,
		ReportTimestamp: timestamps,
	})

	lvl, err := log.ParseLevel(level.String())
	if err != nil {
		lvl = log.InfoLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// setupLogging installs the default slog logger for interactive commands.
func setupLogging(w io.Writer, verbose bool, level config.LogLevel) {
	slog.SetDefault(slog.New(newLogHandler(w, verbose, level, false)))
}

// setupDaemonLogging installs the default slog logger for watch mode. When
// log.file is set, records also go to a size-rotated file. The returned
// closer flushes and closes that file.
func setupDaemonLogging(w io.Writer, verbose bool, cfg config.LogConfig) (io.Closer, error) {
	if cfg.File == "" {
		slog.SetDefault(slog.New(newLogHandler(w, verbose, cfg.Level, true)))
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, err
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	slog.SetDefault(slog.New(newLogHandler(io.MultiWriter(w, rotating), verbose, cfg.Level, true)))
	return rotating, nil
}
