package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"studio/internal/api"
	"studio/internal/daemonctl"
	"studio/internal/preflight"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the studio daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(cmd.Context(), ctx.client(), exe, daemonLaunchOptions(ctx), 10*time.Second)
			if err != nil {
				return err
			}
			switch result.State {
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			default:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the studio daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.Stop(cmd.Context(), ctx.client(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
				return nil
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the studio daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			client := ctx.client()
			if _, err := daemonctl.Stop(cmd.Context(), client, ctx.configValue(), 5*time.Second); err != nil && !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				return err
			}
			if _, err := daemonctl.EnsureStarted(cmd.Context(), client, exe, daemonLaunchOptions(ctx), 10*time.Second); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}

	var jsonOut bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and preflight checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, reachable := fetchStatus(cmd.Context(), ctx)
			if jsonOut {
				return writeJSON(cmd, status)
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonLines(status, reachable, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, check := range status.Preflight {
				kind := statusOK
				if !check.Passed {
					kind = statusError
				}
				fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, check.Detail, colorize))
			}
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

// fetchStatus asks the daemon for its status and falls back to running the
// preflight checks locally when it is unreachable.
func fetchStatus(cmdCtx context.Context, ctx *commandContext) (api.DaemonStatus, bool) {
	status, err := ctx.client().Status(cmdCtx)
	if err == nil {
		return status, true
	}
	cfg := ctx.configValue()
	offline := api.DaemonStatus{}
	if cfg != nil {
		offline.DatabasePath = cfg.DatabasePath()
		offline.LockFilePath = cfg.LockPath()
		offline.Preflight = api.FromPreflight(preflight.RunAll(cmdCtx, cfg))
	}
	return offline, false
}

func daemonLines(status api.DaemonStatus, reachable bool, colorize bool) []string {
	if !reachable {
		return []string{
			renderStatusLine("Studio", statusWarn, "Not running (run `studio start`)", colorize),
			renderStatusLine("Database", statusInfo, status.DatabasePath, colorize),
		}
	}
	lines := []string{
		renderStatusLine("Studio", statusOK, fmt.Sprintf("Running (pid %d, v%s)", status.PID, status.Version), colorize),
		renderStatusLine("Session", statusInfo, status.Session, colorize),
	}
	if started := api.ParseTime(status.StartedAt); !started.IsZero() {
		lines = append(lines, renderStatusLine("Started", statusInfo, humanize.RelTime(started, time.Now(), "ago", "from now"), colorize))
	}
	taskKind := statusOK
	if status.ActiveTasks > 0 {
		taskKind = statusInfo
	}
	lines = append(lines,
		renderStatusLine("Active generations", taskKind, fmt.Sprintf("%d", status.ActiveTasks), colorize),
		renderStatusLine("Batch running", statusInfo, yesNo(status.RunningBatch), colorize),
		renderStatusLine("Database", statusInfo, status.DatabasePath, colorize),
	)
	return lines
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	sibling := filepath.Join(filepath.Dir(exe), "studiod")
	if _, err := os.Stat(sibling); err == nil {
		return sibling, nil
	}
	return "studiod", nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	return daemonctl.LaunchOptions{ConfigPath: ctx.configPath()}
}
