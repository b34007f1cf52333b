// Package logging builds the single base zerolog.Logger the rest of the
// program narrows per component via a one-logger-in-main convention.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bemserver/acquisition-engine/internal/config"
)

// Logger bundles the base zerolog.Logger with the optional file rotator
// backing it, so main can start the daily-rotation goroutine after New
// returns.
type Logger struct {
	zerolog.Logger
	rotator *lumberjack.Logger
}

// New builds the base logger from a LoggingConfig: level, console or JSON
// format, and an optional rotated file sink with N-day retention.
func New(cfg config.LoggingConfig) Logger {
	level, err := zerolog.ParseLevel(levelString(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var w io.Writer = os.Stdout
	if cfg.Format != "JSON" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	var rotator *lumberjack.Logger
	if cfg.Dirpath != "" {
		rotator = &lumberjack.Logger{
			Filename:  cfg.Dirpath + "/acquisition.log",
			MaxAge:    cfg.History,
			Compress:  true,
			LocalTime: false,
		}
		w = zerolog.MultiLevelWriter(w, rotator)
	}

	log := zerolog.New(w).With().Timestamp().Logger().Level(level)
	if !cfg.Enabled {
		log = zerolog.Nop()
	}
	return Logger{Logger: log, rotator: rotator}
}

// RunDailyRotation rotates the file sink at every UTC midnight, until ctx
// is cancelled. A no-op if logging.dirpath was not configured.
func (l Logger) RunDailyRotation(ctx context.Context) {
	if l.rotator == nil {
		return
	}
	for {
		next := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := l.rotator.Rotate(); err != nil {
				l.Logger.Error().Err(err).Msg("log rotation failed")
			}
		}
	}
}

// levelString maps the uppercase levels the config schema accepts to the
// lowercase strings zerolog.ParseLevel expects.
func levelString(level string) string {
	switch level {
	case "DEBUG":
		return "debug"
	case "INFO":
		return "info"
	case "WARNING":
		return "warn"
	case "ERROR":
		return "error"
	default:
		return "info"
	}
}
