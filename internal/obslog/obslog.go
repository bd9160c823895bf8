// Package obslog wires up zerolog for the AQA publisher.
package obslog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger with an RFC3339-timestamped
// console writer to stderr and the given minimum level ("debug",
// "info", "warn", "error"; defaults to "info" on an unrecognized value).
func Init(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
