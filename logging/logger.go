// Package logging configures logrus for the admin client, the conductor stub
// and the CLI. Components receive a *logrus.Entry so tests can swap in a
// discarding or recording logger.
package logging

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// Init configures the standard logger with the given level ("debug", "info", ...).
func Init(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.DateTime,
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			return frame.Function, ""
		},
	})
	logrus.SetReportCaller(lvl >= logrus.DebugLevel)
	return nil
}

// For returns a logger tagged with the component name.
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}

// NewNop returns a logger that drops everything.
func NewNop() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
