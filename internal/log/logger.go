// SPDX-License-Identifier: MIT
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"sort"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// Fields are key/value pairs attached to a Logger and rendered as
// key=value after the message.
type Fields map[string]any

// --- Global Logger State ---

var currentLevel atomic.Uint32

// output is swapped atomically so SetOutput can run while the dispatcher
// goroutine is logging.
var output atomic.Pointer[stdlog.Logger]

func init() {
	SetOutput(os.Stderr)
	SetLevel(LevelInfo)
}

// SetOutput redirects all log output. The TUI points this at a file so log
// lines do not tear the alt-screen.
func SetOutput(w io.Writer) {
	output.Store(stdlog.New(w, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds))
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// Enabled reports whether a message at level would be written. Callers use
// it to skip building expensive fields.
func Enabled(level LogLevel) bool {
	return level >= GetLevel()
}

// Logger is a component-scoped logger. The zero value logs without a
// component prefix.
type Logger struct {
	component string
	fields    Fields
}

// New returns a Logger whose lines are prefixed with component.
func New(component string) *Logger {
	return &Logger{component: component}
}

// With returns a copy of l carrying the additional key/value pairs. Pairs
// are given as alternating keys and values; a trailing key without a value
// is dropped.
func (l *Logger) With(kv ...any) *Logger {
	fields := make(Fields, len(l.fields)+len(kv)/2)
	for k, v := range l.fields {
		fields[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return &Logger{component: l.component, fields: fields}
}

// WithFields is With for a prepared Fields map.
func (l *Logger) WithFields(f Fields) *Logger {
	kv := make([]any, 0, len(f)*2)
	for k, v := range f {
		kv = append(kv, k, v)
	}
	return l.With(kv...)
}

func (l *Logger) emit(level LogLevel, msg string) {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(level.String())
	sb.WriteString("] ")
	if l.component != "" {
		sb.WriteString(l.component)
		sb.WriteString(": ")
	}
	sb.WriteString(msg)
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, l.fields[k])
		}
	}
	if level == LevelFatal {
		output.Load().Fatal(sb.String())
		return
	}
	output.Load().Print(sb.String())
}

// Debugf logs a formatted debug message if the level is appropriate.
func (l *Logger) Debugf(format string, v ...any) {
	if Enabled(LevelDebug) {
		l.emit(LevelDebug, fmt.Sprintf(format, v...))
	}
}

// Infof logs a formatted info message if the level is appropriate.
func (l *Logger) Infof(format string, v ...any) {
	if Enabled(LevelInfo) {
		l.emit(LevelInfo, fmt.Sprintf(format, v...))
	}
}

// Warnf logs a formatted warning message if the level is appropriate.
func (l *Logger) Warnf(format string, v ...any) {
	if Enabled(LevelWarn) {
		l.emit(LevelWarn, fmt.Sprintf(format, v...))
	}
}

// Errorf logs a formatted error message if the level is appropriate.
func (l *Logger) Errorf(format string, v ...any) {
	if Enabled(LevelError) {
		l.emit(LevelError, fmt.Sprintf(format, v...))
	}
}

// Fatalf logs a formatted fatal message and exits. Fatal messages are
// always logged regardless of the current level.
func (l *Logger) Fatalf(format string, v ...any) {
	l.emit(LevelFatal, fmt.Sprintf(format, v...))
}

// --- Package-level convenience (no component) ---

var std = &Logger{}

// Debugf logs a formatted debug message on the default logger.
func Debugf(format string, v ...any) { std.Debugf(format, v...) }

// Infof logs a formatted info message on the default logger.
func Infof(format string, v ...any) { std.Infof(format, v...) }

// Warnf logs a formatted warning message on the default logger.
func Warnf(format string, v ...any) { std.Warnf(format, v...) }

// Errorf logs a formatted error message on the default logger.
func Errorf(format string, v ...any) { std.Errorf(format, v...) }

// Fatalf logs a formatted fatal message on the default logger and exits.
func Fatalf(format string, v ...any) { std.Fatalf(format, v...) }
