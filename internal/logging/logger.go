// Package logging provides structured logging for the afxdp module's
// ambient concerns (socket lifecycle, bind/teardown events, ring
// diagnostics), grounded on the teacher's internal/logging package.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus.Entry with the module's default fields.
type Logger struct {
	*logrus.Entry
}

// New creates a structured JSON logger at the given level ("debug", "info",
// "warn", "error" — falls back to info on an unrecognized value).
func New(level string) *Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	logger.SetOutput(os.Stdout)

	entry := logger.WithField("component", "afxdp")
	return &Logger{Entry: entry}
}

// WithField adds a field, returning a derived Logger.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value)}
}

// WithFields adds multiple fields, returning a derived Logger.
func (l *Logger) WithFields(fields logrus.Fields) *Logger {
	return &Logger{Entry: l.Entry.WithFields(fields)}
}

// LogBind logs a successful socket bind (anchor or shared-UMEM follower).
func (l *Logger) LogBind(ifindex, queueID uint32, anchor, zeroCopy bool) {
	l.Entry.WithFields(logrus.Fields{
		"ifindex":   ifindex,
		"queue_id":  queueID,
		"anchor":    anchor,
		"zero_copy": zeroCopy,
	}).Info("socket bound")
}

// LogTeardown logs a ring set or UMEM teardown step, in the order it
// actually ran (spec.md §5).
func (l *Logger) LogTeardown(step string, err error) {
	entry := l.Entry.WithField("step", step)
	if err != nil {
		entry.WithError(err).Warn("teardown step failed")
		return
	}
	entry.Debug("teardown step completed")
}
