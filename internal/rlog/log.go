// Package rlog is the structured-logging facade every other package logs
// through. It mirrors the teacher's fs.Debugf/fs.Errorf call shape: the
// first argument names the subject a log line is about (a path, a
// session, or nil for process-global lines).
package rlog

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

var std = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(colorable.NewColorableStderr())
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   false,
		TimestampFormat: "15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel adjusts the minimum level printed. verbose is a count (one
// -v raises Info to Debug, two or more to Trace); quiet suppresses
// everything below Error.
func SetLevel(verbose int, quiet bool) {
	switch {
	case quiet:
		std.SetLevel(logrus.ErrorLevel)
	case verbose >= 2:
		std.SetLevel(logrus.TraceLevel)
	case verbose == 1:
		std.SetLevel(logrus.DebugLevel)
	default:
		std.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects log output, used by tests to capture lines.
func SetOutput(w io.Writer) { std.SetOutput(w) }

func entry(subject any) *logrus.Entry {
	if subject == nil {
		return logrus.NewEntry(std)
	}
	return std.WithField("subject", fmt.Sprintf("%v", subject))
}

// Debugf logs at debug level about subject.
func Debugf(subject any, format string, args ...any) {
	entry(subject).Debugf(format, args...)
}

// Infof logs at info level about subject.
func Infof(subject any, format string, args ...any) {
	entry(subject).Infof(format, args...)
}

// Errorf logs at error level about subject.
func Errorf(subject any, format string, args ...any) {
	entry(subject).Errorf(format, args...)
}

// Fatalf logs at error level about subject and exits the process with
// status 1. Reserved for cmd/ top-level error handling.
func Fatalf(subject any, format string, args ...any) {
	entry(subject).Errorf(format, args...)
	os.Exit(1)
}
