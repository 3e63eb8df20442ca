package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"studio/internal/gatewayclient"
	"studio/internal/logging"
)

const followWait = 10 * time.Second

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if lines < 0 {
				return fmt.Errorf("--lines must be zero or positive")
			}
			return streamLogs(cmd.Context(), ctx.client(), cmd.OutOrStdout(), lines, follow, raw)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print log records exactly as stored")
	return cmd
}

func streamLogs(ctx context.Context, client *gatewayclient.Client, out io.Writer, lines int, follow, raw bool) error {
	resp, err := client.Logs(ctx, gatewayclient.LogQuery{Offset: -1, Limit: lines})
	if err != nil {
		return err
	}
	printLines(out, resp.Lines, raw)
	if !follow {
		return nil
	}

	offset := resp.Offset
	for {
		resp, err := client.Logs(ctx, gatewayclient.LogQuery{Offset: offset, Follow: true, Wait: followWait})
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return err
		}
		printLines(out, resp.Lines, raw)
		offset = resp.Offset
	}
}

func printLines(out io.Writer, lines []string, raw bool) {
	for _, line := range lines {
		if !raw {
			if pretty, ok := logging.FormatJSONLine(line); ok {
				line = pretty
			}
		}
		fmt.Fprintln(out, line)
	}
}
