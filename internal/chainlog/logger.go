// Package chainlog provides the leveled component logger shared by every
// consensus subsystem.
package chainlog

import (
	"fmt"
	"log"
	"os"
	"time"
)

// Level represents a logging severity level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of a level.
func (l Level) String() string {
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

// Logger is a leveled logger scoped to one component (e.g. "proposer",
// "validator", "vrf-collector").
type Logger struct {
	component string
	level     Level
	out       *log.Logger
}

// New creates a logger for a component at the given minimum level.
func New(component string, level Level) *Logger {
	return &Logger{
		component: component,
		level:     level,
		out:       log.New(os.Stdout, "", 0),
	}
}

func (l *Logger) shouldLog(level Level) bool {
	return level >= l.level
}

func (l *Logger) format(level Level, msg string, fields map[string]interface{}) string {
	out := fmt.Sprintf("[%s] %s %s: %s", time.Now().Format(time.RFC3339), level, l.component, msg)
	for k, v := range fields {
		out += fmt.Sprintf(" %s=%v", k, v)
	}
	return out
}

func (l *Logger) log(level Level, msg string, fields []map[string]interface{}) {
	if !l.shouldLog(level) {
		return
	}
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	l.out.Println(l.format(level, msg, f))
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]interface{})  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]interface{})  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]interface{}) { l.log(LevelError, msg, fields) }

// Fatal logs and terminates the process. Only ever used on the
// fatal-bootstrap path (§7); never called from steady-state consensus code.
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	l.out.Println(l.format(LevelFatal, msg, f))
	os.Exit(1)
}

// With returns a child logger scope that prefixes every field set with
// the given default fields.
func (l *Logger) With(fields map[string]interface{}) *Scoped {
	return &Scoped{logger: l, fields: fields}
}

// Scoped carries a default field set merged into every subsequent call.
type Scoped struct {
	logger *Logger
	fields map[string]interface{}
}

func (s *Scoped) merge(extra map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(s.fields)+len(extra))
	for k, v := range s.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

func (s *Scoped) Debug(msg string, fields ...map[string]interface{}) {
	s.logger.Debug(msg, s.merge(first(fields)))
}
func (s *Scoped) Info(msg string, fields ...map[string]interface{}) {
	s.logger.Info(msg, s.merge(first(fields)))
}
func (s *Scoped) Warn(msg string, fields ...map[string]interface{}) {
	s.logger.Warn(msg, s.merge(first(fields)))
}
func (s *Scoped) Error(msg string, fields ...map[string]interface{}) {
	s.logger.Error(msg, s.merge(first(fields)))
}

func first(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}
	return fields[0]
}
