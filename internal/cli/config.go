package cli

import (
	"fmt"
	"strings"

	"calendo/internal/config"
	"calendo/internal/grid"
	"calendo/internal/store"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type configEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type configView struct {
	Path    string        `json:"path"`
	Entries []configEntry `json:"entries"`
}

func (v configView) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", v.Path)
	for _, e := range v.Entries {
		fmt.Fprintf(&b, "%s = %s\n", e.Key, e.Value)
	}
	return b.String()
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change persisted settings in config.toml",
		Example: strings.TrimSpace(`
  calendo config show --format text
  calendo config set calendar.week_start monday
  calendo config set calendar.layout six-weeks
`),
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigSetCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the file settings (environment overrides not applied)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, cfg, err := loadConfigFile()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, viewConfig(path, cfg))
		},
	}
}

func newConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Validate and persist one setting (" + strings.Join(config.Keys, ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
			if err := validateConfigValue(key, value); err != nil {
				return writeErr(cmd, err)
			}
			// Work from the file alone so env overrides never get persisted.
			path, cfg, err := loadConfigFile()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := cfg.Set(key, value); err != nil {
				return writeErr(cmd, err)
			}
			if err := config.Save(cfg); err != nil {
				return writeErr(cmd, err)
			}
			app.logger.Debug("config saved", "key", key, "value", value, "path", path)
			return writeOut(cmd, app, viewConfig(path, cfg))
		},
	}
}

func loadConfigFile() (string, *config.Config, error) {
	path, err := config.Path()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return "", nil, err
	}
	return path, cfg, nil
}

func viewConfig(path string, cfg *config.Config) configView {
	v := configView{Path: path, Entries: make([]configEntry, 0, len(config.Keys))}
	for _, k := range config.Keys {
		val, _ := cfg.Get(k)
		v.Entries = append(v.Entries, configEntry{Key: k, Value: val})
	}
	return v
}

func validateConfigValue(key, value string) error {
	var err error
	switch key {
	case "calendar.week_start":
		_, err = grid.ParseWeekStart(value)
	case "calendar.layout":
		_, err = grid.ParseLayout(value)
	case "store.backend":
		switch strings.ToLower(value) {
		case store.BackendSQLite, store.BackendFile, store.BackendMemory:
		default:
			err = fmt.Errorf("unknown backend: %s (want sqlite|file|memory)", value)
		}
	case "log.level":
		_, err = log.ParseLevel(strings.ToLower(value))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
