// Package logger provides a simple logging interface for mactop components.
// Packages log debug, info, warn, and error messages through Logger without
// being coupled to zerolog directly.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DebugEnv forces debug level when set to any non-empty value.
const DebugEnv = "MACTOP_DEBUG"

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	// With returns a child logger tagged with the given component name.
	With(component string) Logger
}

type zeroLogger struct {
	zl zerolog.Logger
}

// New returns a Logger writing structured lines to w at the given level.
func New(w io.Writer, level zerolog.Level) Logger {
	return &zeroLogger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func (l *zeroLogger) Debug(format string, args ...interface{}) { l.zl.Debug().Msgf(format, args...) }
func (l *zeroLogger) Info(format string, args ...interface{})  { l.zl.Info().Msgf(format, args...) }
func (l *zeroLogger) Warn(format string, args ...interface{})  { l.zl.Warn().Msgf(format, args...) }
func (l *zeroLogger) Error(format string, args ...interface{}) { l.zl.Error().Msgf(format, args...) }

func (l *zeroLogger) With(component string) Logger {
	return &zeroLogger{zl: l.zl.With().Str("component", component).Logger()}
}

// Options configures Setup.
type Options struct {
	Level zerolog.Level
	// Console receives human-readable output. Nil disables console logging.
	Console io.Writer
	// File enables rotated JSON logs at this path.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Setup builds the process logger from opts. The returned closer flushes and
// closes the log file, if any.
func Setup(opts Options) (Logger, io.Closer) {
	level := opts.Level
	if os.Getenv(DebugEnv) != "" {
		level = zerolog.DebugLevel
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        opts.Console,
			TimeFormat: time.RFC3339,
		})
	}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		writers = append(writers, rotator)
		closer = rotator
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	return New(out, level), closer
}

// LevelFromVerbosity maps a -v count to a level: 0 error, 1 warn, 2 info, 3+ debug.
func LevelFromVerbosity(v int) zerolog.Level {
	switch {
	case v <= 0:
		return zerolog.ErrorLevel
	case v == 1:
		return zerolog.WarnLevel
	case v == 2:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// ParseLevel parses a level name such as "debug" or "warn".
func ParseLevel(s string) (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, err
	}
	if level == zerolog.NoLevel {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(format string, args ...interface{}) {}
func (noopLogger) Info(format string, args ...interface{})  {}
func (noopLogger) Warn(format string, args ...interface{})  {}
func (noopLogger) Error(format string, args ...interface{}) {}
func (l noopLogger) With(string) Logger                     { return l }

// LogMessage represents a captured log message.
type LogMessage struct {
	Level     string
	Component string
	Message   string
}

// BufferLogger captures log messages for testing.
// Safe for use from collector goroutines.
type BufferLogger struct {
	mu        *sync.Mutex
	messages  *[]LogMessage
	component string
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	msgs := make([]LogMessage, 0)
	return &BufferLogger{mu: &sync.Mutex{}, messages: &msgs}
}

func (l *BufferLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.messages = append(*l.messages, LogMessage{
		Level:     level,
		Component: l.component,
		Message:   fmt.Sprintf(format, args...),
	})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.record("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.record("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.record("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.record("error", format, args...) }

// With shares the capture buffer with the parent.
func (l *BufferLogger) With(component string) Logger {
	return &BufferLogger{mu: l.mu, messages: l.messages, component: component}
}

// Messages returns a copy of everything captured so far.
func (l *BufferLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(*l.messages))
	copy(out, *l.messages)
	return out
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	for _, m := range l.Messages() {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Contains reports whether a message at level contains substr.
func (l *BufferLogger) Contains(level, substr string) bool {
	for _, m := range l.Messages() {
		if m.Level == level && strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.messages = (*l.messages)[:0]
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = func() Logger {
		l, _ := Setup(Options{Level: zerolog.InfoLevel, Console: os.Stderr})
		return l
	}()
)

// Default returns the process-wide logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the process-wide logger.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
