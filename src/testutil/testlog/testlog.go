// Package testlog routes model and CLI logs into the test log.
package testlog

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/sofmeright/aptmirror/src/logging"
)

// New returns a debug logger that writes through t.Log.
func New(t testing.TB) zerolog.Logger {
	t.Helper()

	cfg := logging.DefaultConfig(logging.ProfileTest)
	cfg.NoColor = true
	cfg.Out = zerolog.NewTestWriter(t)
	return logging.New(cfg).With().Str("test", t.Name()).Logger()
}
