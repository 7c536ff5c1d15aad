package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CALENDO_CONFIG_DIR", dir)
	t.Setenv("CALENDO_DIR", "")
	t.Setenv("CALENDO_BACKEND", "")
	t.Setenv("CALENDO_LOG_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	got, err := cfg.StoreDir()
	if err != nil || got != dir {
		t.Fatalf("StoreDir=%q err=%v; want %q", got, err, dir)
	}
	lp, _ := cfg.LogPath()
	if lp != filepath.Join(dir, "logs", "calendo.log") {
		t.Fatalf("LogPath=%q", lp)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CALENDO_CONFIG_DIR", dir)
	t.Setenv("CALENDO_DIR", "")
	t.Setenv("CALENDO_LOG_LEVEL", "")
	t.Setenv("CALENDO_BACKEND", "file")

	body := `
[store]
dir = "/tmp/calendo-data"
backend = "sqlite"

[calendar]
week_start = "monday"
layout = "six-weeks"

[log]
level = "debug"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Dir != "/tmp/calendo-data" || cfg.Store.Backend != "file" {
		t.Fatalf("unexpected store config %+v", cfg.Store)
	}
	if cfg.Calendar.WeekStart != "monday" || cfg.Calendar.Layout != "six-weeks" {
		t.Fatalf("unexpected calendar config %+v", cfg.Calendar)
	}
	if cfg.Log.Level != "debug" || cfg.Log.MaxSizeMB != 5 {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoadFile_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	_ = os.WriteFile(path, []byte("[calendar]\nweekstart = \"monday\"\n"), 0o644)
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CALENDO_CONFIG_DIR", dir)

	cfg := Default()
	cfg.Calendar.WeekStart = "monday"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save again: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.toml.bak")); err != nil {
		t.Fatalf("expected backup: %v", err)
	}
	got, err := LoadFile(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestConfig_GetSet(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Set("calendar.week_start", " monday "); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cfg.Set("calendar.layout", "six-weeks"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := cfg.Get("calendar.week_start"); got != "monday" {
		t.Fatalf("week_start = %q; want monday", got)
	}
	if cfg.Calendar.Layout != "six-weeks" {
		t.Fatalf("layout = %q; want six-weeks", cfg.Calendar.Layout)
	}
	if err := cfg.Set("calendar.weekstart", "monday"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	for _, k := range Keys {
		if _, err := cfg.Get(k); err != nil {
			t.Fatalf("Get(%s): %v", k, err)
		}
	}
}
