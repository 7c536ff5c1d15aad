package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"calendo/internal/config"
	"calendo/internal/format"
	"calendo/internal/grid"
	"calendo/internal/logging"
	"calendo/internal/session"
	"calendo/internal/store"
	"calendo/internal/tui"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type App struct {
	Dir        string
	Backend    string
	Format     string
	PrettyJSON bool
	LogLevel   string
	WeekStart  string
	Layout     string

	cfg    *config.Config
	logger *log.Logger

	// Overridable in tests.
	now        func() time.Time
	confirm    session.Confirmer
	isTerminal func(v any) bool
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	if app.now == nil {
		app.now = time.Now
	}
	if app.isTerminal == nil {
		app.isTerminal = isTerminal
	}

	cmd := &cobra.Command{
		Use:          "calendo",
		Short:        "Month calendar with per-day to-do lists (TUI + CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive calendar
  calendo

  # Print a month (busyness markers: . light, + moderate, * busy)
  calendo month 2024-01 --format text

  # Scriptable task edits
  calendo add 2024-01-15 Pay rent
  calendo add "next friday" Call mom
  calendo list today
  calendo rm 2024-01-15 1 --yes
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI on a terminal, month grid otherwise.
			if app.isTerminal(cmd.OutOrStdout()) {
				return runTUI(cmd.Context(), app)
			}
			now := app.now()
			m, err := loadMonth(cmd.Context(), app, now.Year(), now.Month())
			if err != nil {
				return writeErr(cmd, err)
			}
			return format.Write(cmd.OutOrStdout(), m, "text", false)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		if app.LogLevel == "" {
			app.LogLevel = cfg.Log.Level
		}
		if app.logger == nil {
			l, _, err := logging.New(logging.Options{Level: app.LogLevel, Stderr: cmd.ErrOrStderr()})
			if err != nil {
				return writeErr(cmd, err)
			}
			app.logger = l
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("CALENDO_DIR", ""), "Path to store dir (default: store.dir from config, else ~/.calendo)")
	cmd.PersistentFlags().StringVar(&app.Backend, "backend", envOr("CALENDO_BACKEND", ""), "Storage backend (sqlite|file|memory)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("CALENDO_FORMAT", "json"), "Output format (json|edn|text)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.WeekStart, "week-start", "", "First weekday of the grid (sunday|monday|saturday)")
	cmd.PersistentFlags().StringVar(&app.Layout, "layout", "", "Grid layout (five-weeks|six-weeks)")

	cmd.AddCommand(newMonthCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newAgendaCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

func runTUI(ctx context.Context, app *App) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logPath, err := app.cfg.LogPath()
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(logging.Options{
		Level:      app.LogLevel,
		File:       logPath,
		MaxSizeMB:  app.cfg.Log.MaxSizeMB,
		MaxBackups: app.cfg.Log.MaxBackups,
	})
	if err != nil {
		return err
	}
	defer closer.Close()
	app.logger = logger

	tasks, backend, err := openTasks(ctx, app)
	if err != nil {
		return err
	}
	defer backend.Close()

	opts, err := sessionOptions(app)
	if err != nil {
		return err
	}
	sess := session.New(tasks, opts)
	defer sess.Close()

	var watch []string
	if w, ok := backend.(store.Watchable); ok {
		watch = w.WatchPaths()
	}
	logger.Info("tui start", "backend", fmt.Sprintf("%T", backend))
	return tui.Run(ctx, sess, tui.Options{Logger: logger, WatchPaths: watch})
}

// openTasks opens the configured backend and loads it. Unreadable stored data
// is logged and the store starts empty; the next write replaces it.
func openTasks(ctx context.Context, app *App) (*store.Tasks, store.Backend, error) {
	dir := app.Dir
	if dir == "" {
		d, err := app.cfg.StoreDir()
		if err != nil {
			return nil, nil, err
		}
		dir = d
	}
	kind := app.Backend
	if kind == "" {
		kind = app.cfg.Store.Backend
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	b, err := store.OpenBackend(ctx, kind, dir)
	if err != nil {
		return nil, nil, err
	}
	tasks := store.NewTasks(b, store.WithLogger(app.logger))
	if err := tasks.Load(); err != nil {
		var pfe store.PersistenceFormatError
		if !errors.As(err, &pfe) {
			_ = b.Close()
			return nil, nil, err
		}
		app.logger.Warn("stored tasks are unreadable; starting empty", "dir", dir, "err", pfe.Err)
	}
	return tasks, b, nil
}

func sessionOptions(app *App) (session.Options, error) {
	ws := app.WeekStart
	if ws == "" {
		ws = app.cfg.Calendar.WeekStart
	}
	weekStart, err := grid.ParseWeekStart(ws)
	if err != nil {
		return session.Options{}, err
	}
	l := app.Layout
	if l == "" {
		l = app.cfg.Calendar.Layout
	}
	layout, err := grid.ParseLayout(l)
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{Now: app.now, WeekStart: weekStart, Layout: layout}, nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeOut wraps v in the {"data": ...} envelope. Text output skips the
// envelope so payloads render themselves.
func writeOut(cmd *cobra.Command, app *App, v any) error {
	if strings.EqualFold(strings.TrimSpace(app.Format), "text") {
		return format.Write(cmd.OutOrStdout(), v, "text", app.PrettyJSON)
	}
	return format.Write(cmd.OutOrStdout(), map[string]any{"data": v}, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
