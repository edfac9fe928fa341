// logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// zerologLevel maps our levels onto zerolog's.
func (l LogLevel) zerologLevel() zerolog.Level {
	switch l {
	case DEBUG:
		return zerolog.DebugLevel
	case INFO:
		return zerolog.InfoLevel
	case WARN:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ParseLevel converts "debug", "info", "warn" or "error" into a LogLevel.
// Unknown values fall back to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

var (
	base    zerolog.Logger
	file    *os.File
	once    sync.Once
	mu      sync.RWMutex
	exitFun = os.Exit
)

// ensureInitialized creates a console logger if Init was never called
func ensureInitialized() {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		base = newLogger(consoleWriter(os.Stdout), DEBUG)
	})
}

func consoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
}

func newLogger(w io.Writer, level LogLevel) zerolog.Logger {
	return zerolog.New(w).Level(level.zerologLevel()).With().Timestamp().Logger()
}

// Init initializes the logger with optional file and console output
// If filename is empty, logs only to console
// If console is false, logs only to file (as JSON lines)
func Init(filename string, console bool) error {
	once.Do(func() {}) // Init wins over the lazy default
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}

	var writers []io.Writer
	if filename != "" {
		f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		writers = append(writers, f)
	}
	if console {
		writers = append(writers, consoleWriter(os.Stdout))
	}
	if len(writers) == 0 {
		return fmt.Errorf("no output destination specified")
	}

	base = newLogger(zerolog.MultiLevelWriter(writers...), DEBUG)
	return nil
}

// SetOutput redirects all logging to w. Mostly useful for tests.
func SetOutput(w io.Writer) {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	base = base.Output(w)
}

// SetLevel sets the minimum log level (DEBUG, INFO, WARN, ERROR)
func SetLevel(level LogLevel) {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	base = base.Level(level.zerologLevel())
}

// Close closes the log file if one is open
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
}

func current() *zerolog.Logger {
	ensureInitialized()
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

// Entry is a logger carrying fixed fields, e.g. a job id.
type Entry struct {
	fields map[string]any
}

// With returns an Entry that adds fields to every message it logs.
func With(fields map[string]any) Entry {
	return Entry{fields: fields}
}

func (e Entry) logger() *zerolog.Logger {
	l := current().With().Fields(e.fields).Logger()
	return &l
}

func (e Entry) Debugf(format string, v ...any) { e.logger().Debug().Msgf(format, v...) }
func (e Entry) Infof(format string, v ...any)  { e.logger().Info().Msgf(format, v...) }
func (e Entry) Warnf(format string, v ...any)  { e.logger().Warn().Msgf(format, v...) }
func (e Entry) Errorf(format string, v ...any) { e.logger().Error().Msgf(format, v...) }

// Debug logs a debug message
func Debug(v ...any) {
	current().Debug().Msg(fmt.Sprint(v...))
}

// Debugf logs a formatted debug message
func Debugf(format string, v ...any) {
	current().Debug().Msgf(format, v...)
}

// Info logs an info message
func Info(v ...any) {
	current().Info().Msg(fmt.Sprint(v...))
}

// Infof logs a formatted info message
func Infof(format string, v ...any) {
	current().Info().Msgf(format, v...)
}

// Warn logs a warning message
func Warn(v ...any) {
	current().Warn().Msg(fmt.Sprint(v...))
}

// Warnf logs a formatted warning message
func Warnf(format string, v ...any) {
	current().Warn().Msgf(format, v...)
}

// Error logs an error message
func Error(v ...any) {
	current().Error().Msg(fmt.Sprint(v...))
}

// Errorf logs a formatted error message
func Errorf(format string, v ...any) {
	current().Error().Msgf(format, v...)
}

// Fatal logs an error message and exits the program
func Fatal(v ...any) {
	current().Error().Msg(fmt.Sprint(v...))
	exitFun(1)
}

// Fatalf logs a formatted error message and exits the program
func Fatalf(format string, v ...any) {
	current().Error().Msgf(format, v...)
	exitFun(1)
}
