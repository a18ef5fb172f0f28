// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs a console logger on stderr at info level, or debug when
// debug is set.
func Setup(debug, noColor bool) {
	SetupWriter(os.Stderr, debug, noColor)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, debug, noColor bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()
}
