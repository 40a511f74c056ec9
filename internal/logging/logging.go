// Package logging sets up the process-wide structured logger: rotating
// log files on disk plus console output, mirroring the host application's
// slog-based logging but adding file rotation for the long-running ingest
// daemon.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the rotating file sink.
type Options struct {
	Dir        string // e.g. <root>/logging
	Name       string // log file name, e.g. "unzipping.log"
	MaxSizeMB  int
	MaxBackups int
}

// New builds an slog.Logger that writes structured JSON to both stderr and
// a rotating file under opts.Dir.
func New(opts Options) (*slog.Logger, error) {
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 3
	}
	if opts.Name == "" {
		opts.Name = "unzipping.log"
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, opts.Name),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   false,
	}

	writer := io.MultiWriter(os.Stderr, rotator)
	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(handler), nil
}
