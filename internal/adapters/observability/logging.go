package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "review-boost"

// NewLogger returns the process logger.
// APP_ENV=dev (or development) uses a human-friendly console writer and
// debug level; everything else is JSON at info.
func NewLogger(env string) zerolog.Logger {
	return newLogger(env, os.Stdout)
}

func newLogger(env string, out io.Writer) zerolog.Logger {
	dev := env == "dev" || env == "development"
	if dev {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: out != os.Stdout}
	}
	l := zerolog.New(out).With().Timestamp().Str("service", serviceName)
	if !dev {
		l = l.Str("env", env)
	}
	lvl := zerolog.InfoLevel
	if dev {
		lvl = zerolog.DebugLevel
	}
	return l.Logger().Level(lvl)
}
