package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log is the global logger wrapper. Packages log through it directly;
// tests may swap the sink with SetWriter.
var Log *Logger

type Logger struct {
	z zerolog.Logger
}

func init() {
	Log = &Logger{z: consoleLogger(os.Stderr)}
}

func consoleLogger(w io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger()
}

// Setup configures the global logger. level is one of trace, debug, info,
// warn, error (case-insensitive, unknown values fall back to info);
// format is "json" or "console".
func Setup(level string, format string) {
	var logLevel zerolog.Level
	switch strings.ToUpper(level) {
	case "TRACE":
		logLevel = zerolog.TraceLevel
	case "DEBUG":
		logLevel = zerolog.DebugLevel
	case "WARN":
		logLevel = zerolog.WarnLevel
	case "ERROR":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	if strings.ToLower(format) == "json" {
		Log = &Logger{z: zerolog.New(os.Stderr).With().Timestamp().Logger()}
	} else {
		Log = &Logger{z: consoleLogger(os.Stderr)}
	}
}

// SetWriter redirects the global logger to w in JSON format. Tests use
// this to capture output.
func SetWriter(w io.Writer) {
	Log = &Logger{z: zerolog.New(w).With().Timestamp().Logger()}
}

// With returns a child logger tagged with a component field.
func (l *Logger) With(component string) *Logger {
	return &Logger{z: l.z.With().Str("component", component).Logger()}
}

// Info logs at Info level with variadic key-value pairs.
func (l *Logger) Info(msg string, args ...interface{}) {
	e := l.z.Info()
	addFields(e, args...)
	e.Msg(msg)
}

// Debug logs at Debug level with variadic key-value pairs.
func (l *Logger) Debug(msg string, args ...interface{}) {
	e := l.z.Debug()
	addFields(e, args...)
	e.Msg(msg)
}

// Warn logs at Warn level with variadic key-value pairs.
func (l *Logger) Warn(msg string, args ...interface{}) {
	e := l.z.Warn()
	addFields(e, args...)
	e.Msg(msg)
}

// Error logs at Error level with variadic key-value pairs.
func (l *Logger) Error(msg string, args ...interface{}) {
	e := l.z.Error()
	addFields(e, args...)
	e.Msg(msg)
}

// Err logs err at Error level with an attached error field.
func (l *Logger) Err(msg string, err error, args ...interface{}) {
	e := l.z.Error().Err(err)
	addFields(e, args...)
	e.Msg(msg)
}

func addFields(e *zerolog.Event, args ...interface{}) {
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			key, ok := args[i].(string)
			if !ok {
				key = fmt.Sprintf("%v", args[i])
			}
			e.Interface(key, args[i+1])
		}
	}
}
