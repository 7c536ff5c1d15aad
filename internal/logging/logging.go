// Package logging builds the charmbracelet/log loggers used by the CLI and TUI.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string
	// File switches output to a rotating log file. Empty logs to Stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
	Stderr     io.Writer
}

// New returns a logger and a closer for the underlying file (a no-op for stderr).
func New(opts Options) (*log.Logger, io.Closer, error) {
	level, err := log.ParseLevel(strings.TrimSpace(strings.ToLower(opts.Level)))
	if err != nil {
		level = log.InfoLevel
	}

	if strings.TrimSpace(opts.File) == "" {
		w := opts.Stderr
		if w == nil {
			w = os.Stderr
		}
		l := log.NewWithOptions(w, log.Options{
			Level:  level,
			Prefix: "calendo",
		})
		return l, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, err
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 5
	}
	rot := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}
	l := log.NewWithOptions(rot, log.Options{
		Level:           level,
		Formatter:       log.LogfmtFormatter,
		ReportTimestamp: true,
	})
	return l, rot, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
