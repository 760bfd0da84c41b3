// Package logger writes one JSON object per line to stderr.
//
// Fields are alternating key/value pairs. Customer names and email
// addresses are masked unless redaction is switched off.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel maps a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// sink is shared by a root logger and every child made with With.
type sink struct {
	mu        sync.Mutex
	out       io.Writer
	level     Level
	redactPII bool
	now       func() time.Time
}

// Logger carries fields that are added to each entry it writes.
type Logger struct {
	sink   *sink
	fields []interface{}
}

var std = &Logger{sink: &sink{out: os.Stderr, level: INFO, redactPII: true, now: time.Now}}

// SetLevel sets the minimum level for all loggers.
func SetLevel(l Level) {
	std.sink.mu.Lock()
	std.sink.level = l
	std.sink.mu.Unlock()
}

// SetRedactPII enables or disables PII masking for all loggers.
func SetRedactPII(r bool) {
	std.sink.mu.Lock()
	std.sink.redactPII = r
	std.sink.mu.Unlock()
}

// SetOutput redirects all loggers, mainly for tests.
func SetOutput(w io.Writer) {
	std.sink.mu.Lock()
	std.sink.out = w
	std.sink.mu.Unlock()
}

// With returns a child of the default logger, e.g. With("component", "cache").
func With(fields ...interface{}) *Logger { return std.With(fields...) }

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields ...interface{}) *Logger {
	merged := make([]interface{}, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{sink: l.sink, fields: merged}
}

func Debug(msg string, fields ...interface{}) { std.write(DEBUG, msg, fields) }
func Info(msg string, fields ...interface{})  { std.write(INFO, msg, fields) }
func Warn(msg string, fields ...interface{})  { std.write(WARN, msg, fields) }
func Error(msg string, fields ...interface{}) { std.write(ERROR, msg, fields) }

func (l *Logger) Debug(msg string, fields ...interface{}) { l.write(DEBUG, msg, fields) }
func (l *Logger) Info(msg string, fields ...interface{})  { l.write(INFO, msg, fields) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.write(WARN, msg, fields) }
func (l *Logger) Error(msg string, fields ...interface{}) { l.write(ERROR, msg, fields) }

func (l *Logger) write(level Level, msg string, fields []interface{}) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	if level < s.level {
		return
	}

	entry := make(map[string]interface{}, 3+(len(l.fields)+len(fields))/2)
	entry["time"] = s.now().UTC().Format(time.RFC3339)
	entry["level"] = level.String()
	entry["msg"] = msg
	s.addFields(entry, l.fields)
	s.addFields(entry, fields)

	data, err := json.Marshal(entry)
	if err != nil {
		data, _ = json.Marshal(map[string]string{"level": level.String(), "msg": msg, "log_error": err.Error()})
	}
	fmt.Fprintln(s.out, string(data))
}

// addFields copies key/value pairs into entry. Numbers and booleans keep
// their JSON type; errors and everything else are rendered as strings.
func (s *sink) addFields(entry map[string]interface{}, fields []interface{}) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case bool, int, int32, int64, uint, uint32, uint64, float32, float64:
			entry[key] = v
		case time.Duration:
			entry[key] = v.String()
		default:
			val := fmt.Sprint(v)
			if s.redactPII {
				val = redactValue(key, val)
			}
			entry[key] = val
		}
	}
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

func redactValue(key, val string) string {
	key = strings.ToLower(key)
	switch {
	case strings.Contains(key, "email") && strings.Contains(val, "@"):
		return RedactEmail(val)
	case strings.Contains(key, "customer_name") || key == "name":
		return RedactName(val)
	}
	// prompts and search terms can quote customer email text
	return emailPattern.ReplaceAllStringFunc(val, RedactEmail)
}
