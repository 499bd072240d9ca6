package util

import (
	"io/ioutil"
	"os"

	"github.com/rs/zerolog"
)

var Logger zerolog.Logger

func init() {
	Logger = zerolog.New(ioutil.Discard)
}

// EnableLogging routes diagnostics to stderr at debug level. Output
// is off until a command opts in.
func EnableLogging() {
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}
