package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"calendo/internal/busyness"
	"calendo/internal/grid"
	"calendo/internal/session"
	"calendo/internal/store"

	"github.com/spf13/cobra"
)

// monthView is a built month plus its plain-text rendering.
type monthView struct {
	grid.Month
	Title string `json:"title"`
}

func (v monthView) Text() string {
	var b strings.Builder
	const w = 4
	fmt.Fprintf(&b, "%*s\n", (w*7+len(v.Title))/2, v.Title)
	for _, h := range grid.WeekdayHeaders(v.WeekStart) {
		fmt.Fprintf(&b, " %2s ", h)
	}
	b.WriteString("\n")
	writeCells := func(cells []grid.Cell) {
		for _, c := range cells {
			if c.Blank() {
				b.WriteString(strings.Repeat(" ", w))
				continue
			}
			fmt.Fprintf(&b, " %2d%s", c.Day, tierMarker(c.Tier))
		}
		b.WriteString("\n")
	}
	for _, week := range v.Weeks() {
		writeCells(week)
	}
	if len(v.Overflow) > 0 {
		b.WriteString(" +> ")
		writeCells(v.Overflow)
	}
	return strings.TrimRight(b.String(), "\n")
}

func tierMarker(t busyness.Tier) string {
	switch t {
	case busyness.Light:
		return "."
	case busyness.Moderate:
		return "+"
	case busyness.Busy:
		return "*"
	default:
		return " "
	}
}

func loadMonth(ctx context.Context, app *App, year int, month time.Month) (monthView, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	tasks, backend, err := openTasks(ctx, app)
	if err != nil {
		return monthView{}, err
	}
	defer backend.Close()
	return monthOf(app, tasks, year, month)
}

// monthOf builds the grid through a session so layout and week start follow
// the same options as the TUI.
func monthOf(app *App, tasks *store.Tasks, year int, month time.Month) (monthView, error) {
	opts, err := sessionOptions(app)
	if err != nil {
		return monthView{}, err
	}
	sess := session.New(tasks, opts)
	defer sess.Close()
	if year != sess.Year() || month != sess.Month() {
		sess.ChangeMonth((year-sess.Year())*12 + int(month) - int(sess.Month()))
	}
	m := sess.Grid()
	return monthView{Month: m, Title: m.Title()}, nil
}

func newMonthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Show a month grid with per-day task counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			year, month, err := parseYearMonth(arg, app.now())
			if err != nil {
				return writeErr(cmd, err)
			}
			m, err := loadMonth(cmd.Context(), app, year, month)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, m)
		},
	}
	return cmd
}
