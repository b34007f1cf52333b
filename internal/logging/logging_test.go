package logging

import (
	"context"
	"testing"

	"github.com/bemserver/acquisition-engine/internal/config"
)

func TestNewDisabledReturnsNopLogger(t *testing.T) {
	log := New(config.LoggingConfig{Level: "INFO", Format: "CONSOLE", Enabled: false})
	log.Info().Msg("should not panic or write anywhere observable")
}

func TestLevelString(t *testing.T) {
	tests := map[string]string{
		"DEBUG":   "debug",
		"INFO":    "info",
		"WARNING": "warn",
		"ERROR":   "error",
		"bogus":   "info",
	}
	for in, want := range tests {
		if got := levelString(in); got != want {
			t.Errorf("levelString(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRunDailyRotationNoopWithoutDirpath(t *testing.T) {
	log := New(config.LoggingConfig{Level: "INFO", Format: "CONSOLE", Enabled: true})
	// Should return immediately since no rotator was configured.
	log.RunDailyRotation(context.Background())
}
