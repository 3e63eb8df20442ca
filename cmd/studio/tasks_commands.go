package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"studio/internal/api"
	"studio/internal/registry"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List in-flight image generations for the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Tasks(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if len(resp.Data) == 0 {
				fmt.Fprintln(out, "No generations in flight")
				return nil
			}
			now := time.Now()
			rows := make([][]string, 0, len(resp.Data))
			for _, task := range resp.Data {
				rows = append(rows, []string{task.ID, task.Label, api.TaskAge(task, now)})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Task", "Category", "Started"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
				"session "+resp.Session,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// controlRow is one trigger control as the workspace would render it after a
// reload: busy exactly when a live task of its category exists.
type controlRow struct {
	ID       string            `json:"id"`
	Category registry.Category `json:"category"`
	Label    string            `json:"label"`
	Busy     bool              `json:"busy"`
	TaskID   string            `json:"task_id,omitempty"`
}

func controlRows(tasks []api.Task) []controlRow {
	live := make(map[registry.Category]string, len(tasks))
	for _, task := range tasks {
		live[registry.Category(task.Category)] = task.ID
	}
	bindings := registry.DefaultControlIDs()
	rows := make([]controlRow, 0, len(bindings))
	for category, id := range bindings {
		taskID, busy := live[category]
		rows = append(rows, controlRow{
			ID:       id,
			Category: category,
			Label:    category.Label(),
			Busy:     busy,
			TaskID:   taskID,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func newControlsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "controls",
		Short: "Show which generate controls are busy",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Tasks(cmd.Context())
			if err != nil {
				return err
			}
			rows := controlRows(resp.Data)
			if jsonOut {
				return writeJSON(cmd, rows)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, row := range rows {
				if row.Busy {
					fmt.Fprintln(out, renderStatusLine(row.Label, statusWarn, "generating ("+row.TaskID+")", colorize))
					continue
				}
				fmt.Fprintln(out, renderStatusLine(row.Label, statusOK, "ready", colorize))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
