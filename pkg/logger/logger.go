// Package logger provides hookkit's leveled logger. Records are handled by
// log/slog: tint renders the human format, slog's JSON handler the --json one.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Level represents the severity level of log messages
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

const slogTrace = slog.LevelDebug - 4

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case TraceLevel:
		return slogTrace
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps a --log-level value to a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch s {
	case "trace", "TRACE":
		return TraceLevel
	case "debug", "DEBUG":
		return DebugLevel
	case "warn", "WARN", "warning":
		return WarnLevel
	case "error", "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Config holds the logger configuration
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
}

// Logger represents the logger instance
type Logger struct {
	config  Config
	mu      sync.Mutex
	handler slog.Handler
}

var defaultLogger *Logger

// New builds a logger writing to w.
func New(w io.Writer, config Config) *Logger {
	l := &Logger{config: config}
	l.setOutput(w)
	return l
}

// Initialize sets up the default logger on stderr. Color is dropped when
// stderr is not a terminal.
func Initialize(config Config) error {
	if config.UseColor && !term.IsTerminal(int(os.Stderr.Fd())) {
		config.UseColor = false
	}
	defaultLogger = New(os.Stderr, config)
	return nil
}

func (l *Logger) setOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var h slog.Handler
	if l.config.JSON {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       l.config.Level.slog(),
			ReplaceAttr: replaceLevel("TRACE"),
		})
	} else {
		h = tint.NewHandler(w, &tint.Options{
			Level:       l.config.Level.slog(),
			TimeFormat:  "2006-01-02 15:04:05",
			NoColor:     !l.config.UseColor,
			AddSource:   l.config.Level <= DebugLevel,
			ReplaceAttr: replaceLevel("TRC"),
		})
	}
	if l.config.Component != "" {
		h = h.WithAttrs([]slog.Attr{slog.String("component", l.config.Component)})
	}
	l.handler = h
}

func replaceLevel(traceName string) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && a.Key == slog.LevelKey {
			if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == slogTrace {
				a.Value = slog.StringValue(traceName)
			}
		}
		return a
	}
}

// Log writes a log message
func (l *Logger) Log(level Level, message string, fields ...Field) {
	l.log(level, message, fields)
}

// log keeps a fixed call depth so the recorded source points at the
// caller of Info/Debug/... or Logger.Log.
func (l *Logger) log(level Level, message string, fields []Field) {
	ctx := context.Background()
	l.mu.Lock()
	h := l.handler
	l.mu.Unlock()

	lvl := level.slog()
	if !h.Enabled(ctx, lvl) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), lvl, message, pcs[0])
	for _, f := range fields {
		r.AddAttrs(slog.Any(f.Key, f.Value))
	}
	_ = h.Handle(ctx, r)
}

// Field represents a structured field in a log entry
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	return Field{Key: "error", Value: err.Error()}
}

// Convenience functions for default logger
func Trace(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.log(TraceLevel, message, fields)
	}
}

func Debug(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.log(DebugLevel, message, fields)
	}
}

func Info(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.log(InfoLevel, message, fields)
	} else {
		// Fallback to stderr if logger not initialized
		_, _ = os.Stderr.WriteString("[INFO] hookkit: " + message + "\n")
	}
}

func Warn(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.log(WarnLevel, message, fields)
	}
}

func Error(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.log(ErrorLevel, message, fields)
	}
}

// SetOutput sets the output writer for the logger
func SetOutput(w io.Writer) {
	if defaultLogger != nil {
		defaultLogger.setOutput(w)
	}
}
