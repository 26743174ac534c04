package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the service log. It writes to both the rotated service log file
// and stdout.
type Logger struct {
	log *logrus.Logger
}

// New creates the service logger writing to dir/service.log.
func New(dir, level string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log folder failed: %w", err)
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "service.log"),
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
	}

	log := logrus.New()
	log.SetLevel(lvl)
	log.SetOutput(io.MultiWriter(rotated, os.Stdout))
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Logger{log: log}, nil
}

func (l *Logger) Debugf(msg string, args ...interface{}) {
	l.log.Debugf(msg, args...)
}

func (l *Logger) Infof(msg string, args ...interface{}) {
	l.log.Infof(msg, args...)
}

func (l *Logger) Warnf(msg string, args ...interface{}) {
	l.log.Warnf(msg, args...)
}

func (l *Logger) Errorf(msg string, args ...interface{}) {
	l.log.Errorf(msg, args...)
}
