// FILE: logging.go
// Package main – structured logging setup (SPEC_FULL.md §9.1). One global
// zerolog logger configured at startup, threaded via the package-level
// zerolog/log logger rather than explicit dependency injection, matching
// the teacher's own global-ish log.Printf usage pattern.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// initLogging wires the global zerolog logger: a human-readable console
// writer for interactive CLI invocations, structured JSON otherwise.
func initLogging(level string, console bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if console {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
