package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"calendo/internal/datekey"
	"calendo/internal/session"

	"github.com/spf13/cobra"
)

// taskRow numbers tasks from 1 for people; Index is the store position.
type taskRow struct {
	N     int    `json:"n"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type dayTasks struct {
	Date  datekey.Key `json:"date"`
	Tier  string      `json:"tier"`
	Tasks []taskRow   `json:"tasks"`
}

func (d dayTasks) Text() string {
	if len(d.Tasks) == 0 {
		return fmt.Sprintf("%s: no tasks", d.Date)
	}
	lines := make([]string, 0, len(d.Tasks)+1)
	lines = append(lines, fmt.Sprintf("%s (%d, %s)", d.Date, len(d.Tasks), d.Tier))
	for _, t := range d.Tasks {
		lines = append(lines, fmt.Sprintf("%2d. %s", t.N, t.Text))
	}
	return strings.Join(lines, "\n")
}

// withDay opens the store and selects date in a fresh session.
func withDay(ctx context.Context, app *App, date string, fn func(*session.Session) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	k, err := parseDate(date, app.now())
	if err != nil {
		return err
	}
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
	if err := sess.SelectKey(k); err != nil {
		return err
	}
	return fn(sess)
}

func snapshotDay(sess *session.Session) dayTasks {
	k, _ := sess.Selected()
	rows := sess.Rows()
	out := dayTasks{Date: k, Tasks: make([]taskRow, len(rows))}
	for i, r := range rows {
		out.Tasks[i] = taskRow{N: r.Index + 1, Index: r.Index, Text: r.Text}
	}
	if d, err := k.Date(); err == nil {
		if c, ok := sess.Grid().Find(d.Day); ok {
			out.Tier = c.Tier.String()
		}
	}
	return out
}

// parseTaskNumber turns a 1-based task number into a store index.
func parseTaskNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid task number %q (expected 1, 2, ...)", s)
	}
	return n - 1, nil
}

type rmResult struct {
	Deleted bool     `json:"deleted"`
	Day     dayTasks `json:"day"`
}

func (r rmResult) Text() string {
	if !r.Deleted {
		return "kept\n" + r.Day.Text()
	}
	return "deleted\n" + r.Day.Text()
}

func newListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <date>",
		Short: "List the tasks of a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out dayTasks
			err := withDay(cmd.Context(), app, args[0], func(sess *session.Session) error {
				out = snapshotDay(sess)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <date> <text...>",
		Short: "Add a task to a date",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out dayTasks
			err := withDay(cmd.Context(), app, args[0], func(sess *session.Session) error {
				if err := sess.OnTaskAdd(strings.Join(args[1:], " ")); err != nil {
					return err
				}
				out = snapshotDay(sess)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <date> <n> <text...>",
		Short: "Replace the text of task n (as numbered by list)",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseTaskNumber(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			var out dayTasks
			err = withDay(cmd.Context(), app, args[0], func(sess *session.Session) error {
				if err := sess.BeginEdit(idx); err != nil {
					return err
				}
				if err := sess.OnTaskEdit(idx, strings.Join(args[2:], " ")); err != nil {
					return err
				}
				out = snapshotDay(sess)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}
	return cmd
}

func newRmCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm <date> <n>",
		Short: "Delete task n (as numbered by list) after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseTaskNumber(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			var c session.Confirmer = app.confirm
			if yes {
				c = session.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
			} else if c == nil {
				c = newHuhConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr(), !app.isTerminal(cmd.InOrStdin()))
			}

			var out rmResult
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			err = withDay(ctx, app, args[0], func(sess *session.Session) error {
				ok, err := sess.DeleteWithConfirm(ctx, idx, c)
				if err != nil {
					return err
				}
				out = rmResult{Deleted: ok, Day: snapshotDay(sess)}
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}
