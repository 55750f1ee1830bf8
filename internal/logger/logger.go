// Package logger provides leveled, structured logging for the command line.
// Everything is written to a single writer (standard error in production) so
// that standard output stays reserved for the report.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shepherd-project/freegpu/internal/config"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// Logger is the main logger structure
type Logger struct {
	mu         sync.Mutex
	level      LogLevel
	formatJSON bool
	out        io.Writer
	now        func() time.Time
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// NewLogger creates a new logger instance writing to out.
// A nil out falls back to standard error.
func NewLogger(cfg *config.LogConfig, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		level:      parseLevel(cfg.Level),
		formatJSON: strings.EqualFold(cfg.Format, "json"),
		out:        out,
		now:        time.Now,
	}
}

// parseLevel converts string level to LogLevel
func parseLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	if defaultLogger == nil {
		once.Do(func() {
			defaultLogger = NewLogger(&config.LogConfig{
				Level:  config.DefaultLogLevel,
				Format: "text",
			}, os.Stderr)
		})
	}
	return defaultLogger
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= l.level
}

// log is the internal logging method
func (l *Logger) log(level LogLevel, msg string, fields []Field) {
	if !l.Enabled(level) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := l.now().Format("2006-01-02 15:04:05")
	var logLine string

	if l.formatJSON {
		entry := make(map[string]interface{}, len(fields)+3)
		for _, f := range fields {
			entry[f.Key] = f.Value
		}
		entry["time"] = timestamp
		entry["level"] = level.String()
		entry["msg"] = msg

		data, err := json.Marshal(entry)
		if err != nil {
			data = []byte(fmt.Sprintf(`{"time":%q,"level":%q,"msg":%q}`, timestamp, level, msg))
		}
		logLine = string(data) + "\n"
	} else {
		fieldStr := ""
		if len(fields) > 0 {
			fieldPairs := make([]string, 0, len(fields))
			for _, f := range fields {
				fieldPairs = append(fieldPairs, fmt.Sprintf("%s=%v", f.Key, f.Value))
			}
			fieldStr = " " + strings.Join(fieldPairs, " ")
		}
		logLine = fmt.Sprintf("[%s] %s %s%s\n", timestamp, level, msg, fieldStr)
	}

	// A failed diagnostic write has nowhere better to go.
	_, _ = io.WriteString(l.out, logLine)
}

// WithField creates a log entry with a single field
func (l *Logger) WithField(key string, value interface{}) *LogEntry {
	return &LogEntry{
		logger: l,
		fields: []Field{{Key: key, Value: value}},
	}
}

// WithFields creates a log entry with multiple fields, ordered by key
func (l *Logger) WithFields(fields map[string]interface{}) *LogEntry {
	return (&LogEntry{logger: l}).WithFields(fields)
}

// WithError creates a log entry with an error field
func (l *Logger) WithError(err error) *LogEntry {
	return &LogEntry{
		logger: l,
		fields: []Field{{Key: "error", Value: err.Error()}},
	}
}

// LogEntry represents a log entry with fields
type LogEntry struct {
	logger *Logger
	fields []Field
}

// WithField adds a field to the log entry
func (e *LogEntry) WithField(key string, value interface{}) *LogEntry {
	e.fields = append(e.fields, Field{Key: key, Value: value})
	return e
}

// WithFields adds multiple fields to the log entry
func (e *LogEntry) WithFields(fields map[string]interface{}) *LogEntry {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.fields = append(e.fields, Field{Key: k, Value: fields[k]})
	}
	return e
}

// WithError adds an error field to the log entry
func (e *LogEntry) WithError(err error) *LogEntry {
	e.fields = append(e.fields, Field{Key: "error", Value: err.Error()})
	return e
}

// Debug logs at debug level
func (e *LogEntry) Debug(args ...interface{}) {
	e.logger.log(DEBUG, fmt.Sprint(args...), e.fields)
}

// Debugf logs a formatted message at debug level
func (e *LogEntry) Debugf(format string, args ...interface{}) {
	e.logger.log(DEBUG, fmt.Sprintf(format, args...), e.fields)
}

// Debug logs a message at debug level
func (l *Logger) Debug(args ...interface{}) {
	l.log(DEBUG, fmt.Sprint(args...), nil)
}

// Debugf logs a formatted message at debug level
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(DEBUG, fmt.Sprintf(format, args...), nil)
}

// Infof logs a formatted message at info level
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(INFO, fmt.Sprintf(format, args...), nil)
}

// Errorf logs a formatted message at error level
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(ERROR, fmt.Sprintf(format, args...), nil)
}
