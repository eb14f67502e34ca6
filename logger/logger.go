// Package logger provides the process logger, a leveled console backend on
// top of go-logging that satisfies yamdb.Logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"

	"github.com/goliatone/go-yamdb"
)

const (
	module     = "yamdb"
	timeFormat = "2006/01/02 15:04:05"
)

// Logger adapts a go-logging logger to yamdb.Logger. Messages use the same
// key/value convention as the rest of the library.
type Logger struct {
	log *logging.Logger
}

var _ yamdb.Logger = (*Logger)(nil)

// New returns a logger writing to stderr at the named level
// (DEBUG, INFO, NOTICE, WARNING, ERROR). Unknown levels fall back to INFO.
func New(level string) *Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(w io.Writer, level string) *Logger {
	lvl, err := logging.LogLevel(strings.ToUpper(level))
	if err != nil {
		lvl = logging.INFO
	}

	backend := logging.NewLogBackend(w, "", 0)
	formatted := logging.NewBackendFormatter(backend, newFormatter())
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(lvl, module)

	l := logging.MustGetLogger(module)
	l.SetBackend(leveled)

	return &Logger{log: l}
}

func newFormatter() logging.Formatter {
	return logging.MustStringFormatter(`%{time:` + timeFormat + `} %{level} - %{message}`)
}

func (l *Logger) Debug(format string, args ...any) {
	l.log.Debug(line(format, args...))
}

func (l *Logger) Info(format string, args ...any) {
	l.log.Info(line(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.log.Warning(line(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.log.Error(line(format, args...))
}

func line(format string, args ...any) string {
	return strings.TrimRight(yamdb.FormatLogLine(format, args...), "\n")
}
