// Package logging provides the structured, component-scoped logger the
// framework binds trace/manager/handler fields onto (§6 "Logging contract").
//
// It keeps the teacher's component-logger shape (level gating, coloured
// component tag, printf-style messages over the standard log package) and
// adds Bind, returning a child logger carrying extra fields, since the
// spec requires bind(**fields) semantics the teacher's logger didn't need.
package logging

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Level is a log severity, gated per logger instance.
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

// Logger is a component-scoped logger bound with zero or more fields.
type Logger struct {
	component string
	clr       color.Attribute
	enabled   map[Level]bool
	fields    map[string]string
}

// Config configures a new component Logger.
type Config struct {
	Component     string
	Color         color.Attribute
	EnabledLevels []Level
}

// New creates a component logger. With no EnabledLevels, INFO/WARN/ERROR are
// enabled (DEBUG is opt-in, matching the teacher's default posture).
func New(cfg Config) *Logger {
	enabled := map[Level]bool{}
	if len(cfg.EnabledLevels) == 0 {
		enabled[INFO] = true
		enabled[WARN] = true
		enabled[ERROR] = true
	} else {
		for _, lvl := range cfg.EnabledLevels {
			enabled[lvl] = true
		}
	}
	clr := cfg.Color
	if clr == 0 {
		clr = color.FgWhite
	}
	return &Logger{component: cfg.Component, clr: clr, enabled: enabled}
}

// NewComponentLogger is a convenience constructor mirroring the teacher's
// NewComponentLogger(name) helper, with DEBUG disabled by default.
func NewComponentLogger(component string) *Logger {
	return New(Config{Component: component, EnabledLevels: []Level{INFO, WARN, ERROR}})
}

// Bind returns a child logger carrying the given fields in addition to any
// already bound, per §6's bind(**fields) contract. Field values are
// stringified with fmt.Sprint.
func (l *Logger) Bind(fields map[string]any) *Logger {
	merged := make(map[string]string, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = fmt.Sprint(v)
	}
	return &Logger{component: l.component, clr: l.clr, enabled: l.enabled, fields: merged}
}

func (l *Logger) fieldSuffix() string {
	if len(l.fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, l.fields[k]))
	}
	return " [" + strings.Join(parts, " ") + "]"
}

func (l *Logger) log(level Level, format string, args ...any) {
	if !l.enabled[level] {
		return
	}
	tag := color.New(l.clr).Sprintf("[%s]", l.component)
	msg := fmt.Sprintf(format, args...)
	log.Printf("%s %s%s %s", tag, level, l.fieldSuffix(), msg)
}

func (l *Logger) Debug(format string, args ...any) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(ERROR, format, args...) }
