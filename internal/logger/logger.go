// Package logger wraps zerolog with the constructors the rest of the
// application uses. Embedding zerolog.Logger keeps the full zerolog API
// available on *Logger.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

type Logger struct {
	zerolog.Logger
}

// New returns a JSON logger writing to w (stderr in production so command
// output stays clean on stdout).
func New(w io.Writer, level zerolog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}

	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &Logger{log}
}

// Nop returns a logger that discards everything. Intended for tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// WithAccount returns a child logger carrying the account username on every
// entry.
func (l *Logger) WithAccount(username string) *Logger {
	return &Logger{l.With().Str("account", username).Logger()}
}
