package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_StderrRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, c, err := New(Options{Level: "warn", Stderr: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	l.Info("hidden")
	l.Warn("shown", "key", "2024-01-15")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "2024-01-15") {
		t.Fatalf("expected warn line with field: %q", out)
	}
}

func TestNew_FileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "calendo.log")
	l, c, err := New(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Debug("tasks loaded", "dates", 3)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "msg=\"tasks loaded\"") || !strings.Contains(string(b), "dates=3") {
		t.Fatalf("unexpected log content %q", b)
	}
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, _, _ := New(Options{Level: "loud", Stderr: &buf})
	l.Debug("nope")
	l.Info("yes")
	if strings.Contains(buf.String(), "nope") || !strings.Contains(buf.String(), "yes") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
