package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"studio/internal/api"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent free-create images",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ctx.client().History(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No free-create history")
				return nil
			}
			now := time.Now()
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					humanize.RelTime(entry.CreatedAt, now, "ago", "from now"),
					api.Truncate(entry.Prompt, 40),
					entry.ImagePath,
				})
			}
			fmt.Fprint(out, renderTable([]string{"Created", "Prompt", "Image"}, rows, nil, ""))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
