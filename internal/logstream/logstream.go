package logstream

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Well-known stream names.
const (
	StreamInactive       = "inactive_tcus"
	StreamStatusReport   = "status_report"
	StreamDispatchErrors = "dispatch_errors"
)

// Writer appends timestamped lines to named log streams, one rotated file
// per stream. Timestamps use the reporting timezone, which is independent of
// the timezone the monitor evaluates policy in.
type Writer struct {
	dir string
	tz  *time.Location

	mu      sync.Mutex
	streams map[string]*lumberjack.Logger
}

// New creates a stream writer rooted at dir.
func New(dir string, tz *time.Location) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log folder failed: %w", err)
	}
	return &Writer{
		dir:     dir,
		tz:      tz,
		streams: make(map[string]*lumberjack.Logger),
	}, nil
}

// Append writes one timestamped line to the named stream.
func (w *Writer) Append(stream, line string) error {
	out := w.stream(stream)
	stamp := time.Now().In(w.tz).Format("2006-01-02 15:04:05 MST")
	if _, err := fmt.Fprintf(out, "[%s] %s\n", stamp, line); err != nil {
		return fmt.Errorf("append to stream %s failed: %w", stream, err)
	}
	return nil
}

func (w *Writer) stream(name string) *lumberjack.Logger {
	w.mu.Lock()
	defer w.mu.Unlock()
	if out, ok := w.streams[name]; ok {
		return out
	}
	out := &lumberjack.Logger{
		Filename:   filepath.Join(w.dir, sanitize(name)+".log"),
		MaxSize:    20, // megabytes
		MaxBackups: 3,
	}
	w.streams[name] = out
	return out
}

// Close closes every open stream.
func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, out := range w.streams {
		_ = out.Close()
	}
}

// sanitize keeps stream names safe as file names.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
