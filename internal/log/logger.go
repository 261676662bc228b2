package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Production writes JSON for log shippers;
// everything else gets the human console writer at debug level.
func New(environment string) zerolog.Logger {
	var logger zerolog.Logger
	if environment == "production" {
		logger = zerolog.New(os.Stdout)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	return logger.With().
		Timestamp().
		Str("service", "oneaccount-api").
		Str("env", environment).
		Logger()
}
