// Package logger holds the project-wide logrus logger.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const projectName = "clacktime"

var (
	mu   sync.Mutex
	base = newBase()
	file *os.File
)

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// GetProjectLogger returns the shared logger tagged with the project name.
func GetProjectLogger() *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()
	return base.WithField("name", projectName)
}

// Configure sets the level and, when path is non-empty, redirects output to an
// append-only log file. Interactive surfaces call this before they take over
// the terminal.
func Configure(level, path string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}

	mu.Lock()
	defer mu.Unlock()

	base.SetLevel(lvl)
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "open log file %s", path)
	}
	if file != nil {
		file.Close()
	}
	file = f
	base.SetOutput(f)
	return nil
}

// SetOutput redirects the shared logger, mostly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base.SetOutput(w)
}

// Close releases the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
		base.SetOutput(os.Stderr)
	}
}
