package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"studio/internal/api"
	"studio/internal/batch"
	"studio/internal/gatewayclient"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Run and inspect batch speech synthesis",
	}
	batchCmd.AddCommand(newBatchStartCommand(ctx))
	batchCmd.AddCommand(newBatchStatusCommand(ctx))
	return batchCmd
}

func newBatchStartCommand(ctx *commandContext) *cobra.Command {
	var req api.BatchStartRequest
	var inputFile string
	var emoFile string
	var wait bool
	var pollInterval time.Duration
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Submit one line per clip for batch synthesis",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputFile != "" {
				data, err := os.ReadFile(inputFile)
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				req.Input = string(data)
			}
			if emoFile != "" {
				data, err := os.ReadFile(emoFile)
				if err != nil {
					return fmt.Errorf("read emotion text: %w", err)
				}
				req.EmoText = string(data)
			}
			if err := fillTTSDefaults(cmd, ctx, &req.APIKey, &req.PromptAudioURL, &req.PromptText); err != nil {
				return err
			}

			client := ctx.client()
			started, err := client.StartBatch(cmd.Context(), req)
			if err != nil {
				return generationError(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Batch %s started with %d items\n", started.RunID, started.Total)
			if !wait {
				return nil
			}
			final, err := waitForBatch(cmd.Context(), client, started.RunID, pollInterval)
			if err != nil {
				return err
			}
			renderBatch(out, final)
			if final.Report.Total > 0 {
				kind := statusOK
				if final.Report.Failed > 0 {
					kind = statusWarn
				}
				fmt.Fprintln(out, kind.paint(final.Report.Message(), shouldColorize(out)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.ProjectPath, "project", "p", "", "Project directory")
	cmd.Flags().StringVar(&req.Input, "input", "", "Newline-separated lines to synthesize")
	cmd.Flags().StringVar(&inputFile, "input-file", "", "Read the lines to synthesize from a file")
	cmd.Flags().StringVar(&req.EmoText, "emo-text", "", "Newline-separated emotion text, aligned with the input lines")
	cmd.Flags().StringVar(&emoFile, "emo-file", "", "Read the emotion text from a file")
	cmd.Flags().StringVar(&req.APIKey, "api-key", "", "TTS API key (defaults to the daemon's)")
	cmd.Flags().StringVar(&req.PromptAudioURL, "prompt-audio-url", "", "Voice prompt audio URL (defaults to the daemon's)")
	cmd.Flags().StringVar(&req.PromptText, "prompt-text", "", "Voice prompt transcript (defaults to the daemon's)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the run to finish and print its items")
	cmd.Flags().DurationVar(&pollInterval, "poll", time.Second, "Progress poll interval with --wait")
	return cmd
}

func waitForBatch(ctx context.Context, client *gatewayclient.Client, runID string, interval time.Duration) (api.Batch, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		current, err := client.Batch(ctx)
		if err != nil {
			return api.Batch{}, err
		}
		if current.RunID != runID {
			return api.Batch{}, fmt.Errorf("batch %s is no longer the current run", runID)
		}
		if !current.Running {
			return current, nil
		}
		select {
		case <-ctx.Done():
			return api.Batch{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newBatchStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current or most recent batch run",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := ctx.client().Batch(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, current)
			}
			if current.RunID == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No batch runs yet")
				return nil
			}
			renderBatch(cmd.OutOrStdout(), current)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderBatch(out io.Writer, b api.Batch) {
	state := "finished"
	if b.Running {
		state = "running"
	}
	rows := make([][]string, 0, len(b.Items))
	for _, item := range b.Items {
		detail := item.Filename
		if item.Status == string(batch.StatusFailed) {
			detail = item.Message
		}
		rows = append(rows, []string{
			strconv.Itoa(item.Seq),
			api.Truncate(item.Text, 32),
			item.Status,
			api.Truncate(detail, 40),
		})
	}
	caption := fmt.Sprintf("%s %s: %s", b.RunID, state, api.BatchProgress(b))
	fmt.Fprint(out, renderTable(
		[]string{"#", "Text", "Status", "Result"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
		caption,
	))
}
