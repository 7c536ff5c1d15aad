package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"calendo/internal/datekey"
	"calendo/internal/format"
	"calendo/internal/store"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print all tasks in the persisted format ({\"YYYY-MM-DD\": [\"task\", ...]})",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, backend, err := openTasks(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer backend.Close()

			snap := tasks.Snapshot()
			if f := strings.ToLower(strings.TrimSpace(app.Format)); f == "edn" {
				return format.WriteEDN(cmd.OutOrStdout(), snap, app.PrettyJSON)
			}
			// json and text both print the blob itself, no envelope.
			b, err := store.Encode(snap)
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.PrettyJSON {
				var buf bytes.Buffer
				if err := json.Indent(&buf, b, "", "  "); err != nil {
					return writeErr(cmd, err)
				}
				b = buf.Bytes()
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
	return cmd
}

type importResult struct {
	Dates int  `json:"dates"`
	Tasks int  `json:"tasks"`
	Merge bool `json:"merge"`
}

func (r importResult) Text() string {
	return fmt.Sprintf("imported %d tasks on %d dates", r.Tasks, r.Dates)
}

func newImportCmd(app *App) *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Load tasks from an export (replaces everything unless --merge)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			incoming, err := store.Decode(raw)
			if err != nil {
				return writeErr(cmd, err)
			}

			tasks, backend, err := openTasks(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer backend.Close()

			next := incoming
			if merge {
				next = mergeTasks(tasks.Snapshot(), incoming)
			}
			if err := tasks.Replace(next); err != nil {
				return writeErr(cmd, err)
			}

			res := importResult{Merge: merge}
			for _, k := range tasks.Keys() {
				res.Dates++
				res.Tasks += tasks.Count(k)
			}
			app.logger.Debug("import done", "dates", res.Dates, "tasks", res.Tasks)
			return writeOut(cmd, app, res)
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "Append to existing tasks instead of replacing them")
	return cmd
}

// mergeTasks appends incoming tasks after the existing ones of each date.
func mergeTasks(have, incoming map[datekey.Key][]string) map[datekey.Key][]string {
	out := make(map[datekey.Key][]string, len(have)+len(incoming))
	for k, v := range have {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range incoming {
		out[k] = append(out[k], v...)
	}
	return out
}
