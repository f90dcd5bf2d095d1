// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls the log format and destination.
type Options struct {
	Level string
	JSON  bool
	// File, when set, receives a copy of every entry and is rotated.
	File string
}

// Init applies opts to the standard logrus logger.
func Init(opts Options) {
	Configure(logrus.StandardLogger(), opts)
}

// Configure applies opts to l.
func Configure(l *logrus.Logger, opts Options) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if opts.JSON {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = io.MultiWriter(os.Stdout, RotatingFile(opts.File))
	}
	l.SetOutput(out)
}

// RotatingFile returns a size-rotated writer for path, creating its
// directory if needed.
func RotatingFile(path string) io.WriteCloser {
	if dir := filepath.Dir(path); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
}
