// Package logger internal/infrastructure/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Level represents the severity level of a log message
type Level string

const (
	// DebugLevel is used for development messages
	DebugLevel Level = "DEBUG"
	// InfoLevel is used for general operational information
	InfoLevel Level = "INFO"
	// WarnLevel is used for warnings and potential issues
	WarnLevel Level = "WARN"
	// ErrorLevel is used for errors and unexpected events
	ErrorLevel Level = "ERROR"
	// FatalLevel is used for critical errors that require termination
	FatalLevel Level = "FATAL"
)

// callerSkip accounts for the two wrapper frames between the caller and zerolog.
// The package-level helpers add a third, see logDefault.
const callerSkip = 4

// ParseLevel converts a case-insensitive level name into a Level
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case DebugLevel:
		return DebugLevel, nil
	case InfoLevel, "":
		return InfoLevel, nil
	case WarnLevel, "WARNING":
		return WarnLevel, nil
	case ErrorLevel:
		return ErrorLevel, nil
	case FatalLevel:
		return FatalLevel, nil
	}
	return "", errors.Errorf("unknown log level %q", s)
}

func (l Level) zerologLevel() zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case FatalLevel:
		return zerolog.FatalLevel
	default:
		return zerolog.DebugLevel
	}
}

// Logger defines the interface for the application logger
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Fatal(msg string, fields map[string]interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// ZeroLogger is a Logger backed by zerolog
type ZeroLogger struct {
	zl zerolog.Logger
}

// NewJSONLogger creates a logger writing one JSON object per line
func NewJSONLogger(output io.Writer, level Level) *ZeroLogger {
	if output == nil {
		output = os.Stderr
	}

	zl := zerolog.New(output).
		Level(level.zerologLevel()).
		With().
		Timestamp().
		CallerWithSkipFrameCount(callerSkip).
		Logger()

	return &ZeroLogger{zl: zl}
}

// NewConsoleLogger creates a logger with human-readable output for terminals
func NewConsoleLogger(output io.Writer, level Level) *ZeroLogger {
	if output == nil {
		output = os.Stderr
	}

	cw := zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen, NoColor: !isTerminal(output)}
	return NewJSONLogger(cw, level)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// New picks the console or JSON writer
func New(output io.Writer, level Level, pretty bool) *ZeroLogger {
	if pretty {
		return NewConsoleLogger(output, level)
	}
	return NewJSONLogger(output, level)
}

// WithField returns a new logger with the field added to the log context
func (l *ZeroLogger) WithField(key string, value interface{}) Logger {
	return &ZeroLogger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithFields returns a new logger with the fields added to the log context
func (l *ZeroLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return l
	}

	return &ZeroLogger{zl: l.zl.With().Fields(fields).Logger()}
}

// Debug logs a message at debug level
func (l *ZeroLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(l.zl.Debug(), msg, fields)
}

// Info logs a message at info level
func (l *ZeroLogger) Info(msg string, fields map[string]interface{}) {
	l.log(l.zl.Info(), msg, fields)
}

// Warn logs a message at warn level
func (l *ZeroLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(l.zl.Warn(), msg, fields)
}

// Error logs a message at error level
func (l *ZeroLogger) Error(msg string, fields map[string]interface{}) {
	l.log(l.zl.Error(), msg, fields)
}

// Fatal logs a message at fatal level and then terminates the program
func (l *ZeroLogger) Fatal(msg string, fields map[string]interface{}) {
	l.log(l.zl.Fatal(), msg, fields)
}

// log attaches the fields and sends the event; a nil event means the level is disabled
func (l *ZeroLogger) log(e *zerolog.Event, msg string, fields map[string]interface{}) {
	if e == nil {
		return
	}

	for k, v := range fields {
		if err, ok := v.(error); ok && k == zerolog.ErrorFieldName {
			e = e.Err(err)
			continue
		}
		e = e.Interface(k, v)
	}

	e.Msg(msg)
}

// Default logger instances
var (
	defaultLogger Logger = NewConsoleLogger(os.Stderr, InfoLevel)
)

// GetDefaultLogger returns the default logger
func GetDefaultLogger() Logger {
	return defaultLogger
}

// SetDefaultLogger sets the default logger
func SetDefaultLogger(logger Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}

// Debug Global logger functions
func Debug(msg string, fields map[string]interface{}) {
	logDefault(DebugLevel, msg, fields)
}

func Info(msg string, fields map[string]interface{}) {
	logDefault(InfoLevel, msg, fields)
}

func Warn(msg string, fields map[string]interface{}) {
	logDefault(WarnLevel, msg, fields)
}

func Error(msg string, fields map[string]interface{}) {
	logDefault(ErrorLevel, msg, fields)
}

func Fatal(msg string, fields map[string]interface{}) {
	logDefault(FatalLevel, msg, fields)
}

// logDefault sends to the default logger. A zerolog-backed default skips one
// extra frame so the helper's caller is reported, not this file.
func logDefault(level Level, msg string, fields map[string]interface{}) {
	zl, ok := defaultLogger.(*ZeroLogger)
	if !ok {
		switch level {
		case DebugLevel:
			defaultLogger.Debug(msg, fields)
		case InfoLevel:
			defaultLogger.Info(msg, fields)
		case WarnLevel:
			defaultLogger.Warn(msg, fields)
		case ErrorLevel:
			defaultLogger.Error(msg, fields)
		case FatalLevel:
			defaultLogger.Fatal(msg, fields)
		}
		return
	}

	var e *zerolog.Event
	switch level {
	case DebugLevel:
		e = zl.zl.Debug()
	case InfoLevel:
		e = zl.zl.Info()
	case WarnLevel:
		e = zl.zl.Warn()
	case ErrorLevel:
		e = zl.zl.Error()
	case FatalLevel:
		e = zl.zl.Fatal()
	}
	zl.log(e.CallerSkipFrame(1), msg, fields)
}
