package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/handiism/xchina-downloader/internal/config"
)

// New creates a new logrus logger with standard configuration.
func New(settings *config.Settings) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	log.SetLevel(logrus.InfoLevel)
	if settings.Debug {
		log.SetLevel(logrus.DebugLevel)
	}
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return log
}

// NewCaptured creates a logger whose text output is discarded; entries are
// only delivered to the returned hook. The TUI uses it so that log lines do
// not tear the alternate screen.
func NewCaptured(settings *config.Settings, capacity int) (*logrus.Logger, *RingHook) {
	log := New(settings)
	log.SetOutput(io.Discard)

	hook := NewRingHook(capacity)
	log.AddHook(hook)
	return log, hook
}
