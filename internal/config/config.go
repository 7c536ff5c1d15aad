// Package config loads ~/.calendo/config.toml and applies environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const fileName = "config.toml"

type Config struct {
	Store    StoreConfig    `toml:"store"`
	Calendar CalendarConfig `toml:"calendar"`
	Log      LogConfig      `toml:"log"`
}

type StoreConfig struct {
	// Dir holds the task database and logs. Empty means the config dir.
	Dir string `toml:"dir,omitempty"`
	// Backend is one of: sqlite|file|memory
	Backend string `toml:"backend,omitempty"`
}

type CalendarConfig struct {
	// WeekStart is sunday|monday|saturday.
	WeekStart string `toml:"week_start,omitempty"`
	// Layout is five-weeks|six-weeks.
	Layout string `toml:"layout,omitempty"`
}

type LogConfig struct {
	Level      string `toml:"level,omitempty"`
	File       string `toml:"file,omitempty"`
	MaxSizeMB  int    `toml:"max_size_mb,omitempty"`
	MaxBackups int    `toml:"max_backups,omitempty"`
}

func Default() *Config {
	return &Config{
		Store:    StoreConfig{Backend: "sqlite"},
		Calendar: CalendarConfig{WeekStart: "sunday", Layout: "five-weeks"},
		Log:      LogConfig{Level: "info", MaxSizeMB: 5, MaxBackups: 3},
	}
}

func Dir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.calendo).
	if v := strings.TrimSpace(os.Getenv("CALENDO_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".calendo"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the config file (missing file means defaults) and then applies
// CALENDO_DIR and CALENDO_BACKEND.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadFile decodes path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parse %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("CALENDO_DIR")); v != "" {
		cfg.Store.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("CALENDO_BACKEND")); v != "" {
		cfg.Store.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("CALENDO_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
}

// StoreDir resolves the data directory.
func (c *Config) StoreDir() (string, error) {
	if strings.TrimSpace(c.Store.Dir) != "" {
		return expandHome(c.Store.Dir)
	}
	return Dir()
}

// LogPath resolves the log file, defaulting to <store dir>/logs/calendo.log.
func (c *Config) LogPath() (string, error) {
	if strings.TrimSpace(c.Log.File) != "" {
		return expandHome(c.Log.File)
	}
	dir, err := c.StoreDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "calendo.log"), nil
}

func expandHome(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
	}
	return p, nil
}

// Keys lists the settable dotted keys in file order.
var Keys = []string{
	"store.dir",
	"store.backend",
	"calendar.week_start",
	"calendar.layout",
	"log.level",
	"log.file",
}

func (c *Config) field(key string) (*string, error) {
	switch key {
	case "store.dir":
		return &c.Store.Dir, nil
	case "store.backend":
		return &c.Store.Backend, nil
	case "calendar.week_start":
		return &c.Calendar.WeekStart, nil
	case "calendar.layout":
		return &c.Calendar.Layout, nil
	case "log.level":
		return &c.Log.Level, nil
	case "log.file":
		return &c.Log.File, nil
	}
	return nil, fmt.Errorf("unknown config key %q (want one of: %s)", key, strings.Join(Keys, ", "))
}

// Get returns the value stored under a dotted key.
func (c *Config) Get(key string) (string, error) {
	f, err := c.field(key)
	if err != nil {
		return "", err
	}
	return *f, nil
}

// Set stores value under a dotted key. Values are not validated here.
func (c *Config) Set(key, value string) error {
	f, err := c.field(key)
	if err != nil {
		return err
	}
	*f = strings.TrimSpace(value)
	return nil
}

// Save writes cfg to the config path, keeping a .bak of the previous file.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, fileName+".bak.*.tmp", path+".bak", prev, 0o644)
	}
	return atomicWriteFile(dir, fileName+".*.tmp", path, buf.Bytes(), 0o600)
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
