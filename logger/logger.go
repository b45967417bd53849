package logger

import (
	"io"
	"os"
	"strings"
	"time"

	// .env has to be loaded before init reads the environment.
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Logger = zerolog.Logger

// New returns a sub-logger tagged with the given component name.
func New(component string) *Logger {
	sublogger := log.With().
		Str("component", component).
		Logger()
	return &sublogger
}

// Configure sets the global level and output. DEBUG forces debug level,
// otherwise LOG_LEVEL is honored. LOG_FORMAT=json writes raw JSON lines.
func Configure(getenv func(string) string, out io.Writer) {
	level := zerolog.InfoLevel
	if lvl := strings.TrimSpace(getenv("LOG_LEVEL")); lvl != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(lvl))
		if err == nil && parsed != zerolog.NoLevel {
			level = parsed
		}
	}
	if getenv("DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if strings.EqualFold(strings.TrimSpace(getenv("LOG_FORMAT")), "json") {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	})
}

func init() {
	Configure(os.Getenv, os.Stderr)
}
