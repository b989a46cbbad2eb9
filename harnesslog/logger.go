// Package harnesslog is the structured logger shared by the harness backends.
package harnesslog

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// CategoryAction is the category of the line every element operation logs
// before it runs.
const CategoryAction = "harness:action"

var (
	magenta = color.New(color.FgMagenta).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
)

// Logger wraps a logrus logger with category filtering and elapsed-time
// fields.
type Logger struct {
	Log            *logrus.Logger
	mu             sync.Mutex
	lastLogCall    int64
	categoryFilter *regexp.Regexp
}

// NewNullLogger creates a logger whose lines are discarded.
func NewNullLogger() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return New(log, nil)
}

// New creates a new logger. A nil categoryFilter lets every category through.
func New(logger *logrus.Logger, categoryFilter *regexp.Regexp) *Logger {
	return &Logger{
		Log:            logger,
		categoryFilter: categoryFilter,
	}
}

// Default returns a logger over logrus' standard logger.
func Default() *Logger {
	return New(logrus.StandardLogger(), nil)
}

func (l *Logger) Debugf(category string, msg string, args ...any) {
	l.Logf(logrus.DebugLevel, category, msg, args...)
}

func (l *Logger) Infof(category string, msg string, args ...any) {
	l.Logf(logrus.InfoLevel, category, msg, args...)
}

func (l *Logger) Warnf(category string, msg string, args ...any) {
	l.Logf(logrus.WarnLevel, category, msg, args...)
}

func (l *Logger) Errorf(category string, msg string, args ...any) {
	l.Logf(logrus.ErrorLevel, category, msg, args...)
}

// Logf writes msg at level if the logger's level and category filter allow it.
func (l *Logger) Logf(level logrus.Level, category string, msg string, args ...any) {
	l.log(level, category, nil, msg, args...)
}

// Action records that action is about to run against the element described
// by element. The key argument of the operation, if any, goes in arg.
func (l *Logger) Action(action, element string, arg ...any) {
	fields := logrus.Fields{
		"action":  action,
		"element": element,
	}
	msg := fmt.Sprintf("%s %s", magenta(action), green(element))
	if len(arg) > 0 {
		a := formatArgs(arg)
		fields["arg"] = a
		msg += " " + a
	}
	l.log(logrus.InfoLevel, CategoryAction, fields, "%s", msg)
}

// ActionEnabled reports whether Action lines would be written. Backends use
// it to skip building element descriptions nobody will read.
func (l *Logger) ActionEnabled() bool {
	if l == nil || l.Log == nil || l.Log.GetLevel() < logrus.InfoLevel {
		return false
	}
	return l.categoryFilter == nil || l.categoryFilter.MatchString(CategoryAction)
}

func (l *Logger) log(level logrus.Level, category string, fields logrus.Fields, msg string, args ...any) {
	if l == nil || l.Log == nil {
		return
	}
	if l.Log.GetLevel() < level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UnixNano() / int64(time.Millisecond)
	elapsed := now - l.lastLogCall
	if now == elapsed {
		elapsed = 0
	}
	defer func() {
		l.lastLogCall = now
	}()

	if l.categoryFilter != nil && !l.categoryFilter.MatchString(category) {
		return
	}
	entry := l.Log.WithFields(logrus.Fields{
		"category": category,
		"elapsed":  fmt.Sprintf("%d ms", elapsed),
	})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Logf(level, msg, args...)
}

// SetLevel sets the logger level from a level string such as "debug".
func (l *Logger) SetLevel(level string) error {
	pl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.Log.SetLevel(pl)
	return nil
}

// DebugMode returns true if the logger level is set to Debug or higher.
func (l *Logger) DebugMode() bool {
	return l.Log.GetLevel() >= logrus.DebugLevel
}

func formatArgs(args []any) string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch v := a.(type) {
		case string:
			out = append(out, v)
		case fmt.Stringer:
			out = append(out, v.String())
		default:
			b, err := json.Marshal(v)
			if err != nil {
				out = append(out, fmt.Sprint(v))
				continue
			}
			out = append(out, string(b))
		}
	}
	return strings.Join(out, " ")
}
