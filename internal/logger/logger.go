package logger

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// Until Init runs, errors still reach stderr.
	logger    = zerolog.New(os.Stderr).With().Timestamp().Logger()
	sessionID string
)

// Init configures the process logger. Every line carries the session id so
// waves, submissions and connection attempts from one run can be correlated.
func Init(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	sessionID = uuid.NewString()
	logger = log.With().Caller().Str("session", sessionID).Logger()
}

func GetLogger() *zerolog.Logger {
	return &logger
}

// SessionID is empty until Init has run.
func SessionID() string {
	return sessionID
}

// Component returns a child logger tagged with the component name.
func Component(name string) *zerolog.Logger {
	l := logger.With().Str("component", name).Logger()
	return &l
}
