package cli

import (
	"context"
	"fmt"
	"strings"

	"calendo/internal/datekey"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

type agendaDay struct {
	Date  datekey.Key `json:"date"`
	Tasks []string    `json:"tasks"`
}

type agendaView struct {
	Title    string      `json:"title"`
	Days     []agendaDay `json:"days"`
	Markdown string      `json:"markdown"`

	raw   bool
	style string
	width int
}

// Text renders the markdown for a terminal unless raw output was asked for.
func (a agendaView) Text() string {
	if a.raw {
		return a.Markdown
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(a.style),
		glamour.WithWordWrap(a.width),
	)
	if err != nil {
		return a.Markdown
	}
	out, err := r.Render(a.Markdown)
	if err != nil {
		return a.Markdown
	}
	return strings.TrimRight(out, "\n")
}

func agendaMarkdown(title string, days []agendaDay) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	if len(days) == 0 {
		b.WriteString("\n_No tasks this month._\n")
		return b.String()
	}
	for _, d := range days {
		heading := string(d.Date)
		if t, err := d.Date.Time(nil); err == nil {
			heading = t.Format("Mon, Jan 2")
		}
		fmt.Fprintf(&b, "\n## %s\n\n", heading)
		for _, t := range d.Tasks {
			fmt.Fprintf(&b, "- %s\n", escapeMarkdown(t))
		}
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "#", `\#`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func newAgendaCmd(app *App) *cobra.Command {
	var raw bool
	var width int

	cmd := &cobra.Command{
		Use:   "agenda [YYYY-MM]",
		Short: "Print the month's tasks as a markdown agenda",
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
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			tasks, backend, err := openTasks(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer backend.Close()
			m, err := monthOf(app, tasks, year, month)
			if err != nil {
				return writeErr(cmd, err)
			}

			days := []agendaDay{}
			for _, c := range m.Days() {
				if c.Count == 0 {
					continue
				}
				days = append(days, agendaDay{Date: c.Key, Tasks: tasks.TasksFor(c.Key)})
			}

			style := "notty"
			if app.isTerminal(cmd.OutOrStdout()) {
				style = "auto"
			}
			return writeOut(cmd, app, agendaView{
				Title:    m.Title,
				Days:     days,
				Markdown: agendaMarkdown(m.Title, days),
				raw:      raw,
				style:    style,
				width:    width,
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown source instead of rendering it (text format)")
	cmd.Flags().IntVar(&width, "width", 80, "Word-wrap width for rendered output")
	return cmd
}
