package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"studio/internal/batch"
	"studio/internal/config"
	"studio/internal/daemon"
	"studio/internal/gateway"
	"studio/internal/invoker"
	"studio/internal/logging"
	"studio/internal/notifications"
	"studio/internal/registry"
	"studio/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the studio daemon and blocks until the process is signalled.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sessionID := uuid.NewString()
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("studiod-%s.log", runID))

	logger, err := logging.NewFromConfig(cfg, filepath.Base(logPath), logging.Options{
		Level:       opts.LogLevel,
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logging.WithSession(logger, sessionID)

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update studiod.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "studiod-*.log", Exclude: []string{logPath}},
	)
	logConfigSnapshot(logger, cfg)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open state store", logging.Error(err))
		return err
	}

	d, err := build(cfg, st, sessionID, logger)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that no other studiod is running and the state directory is writable"),
			logging.String(logging.FieldImpact, "the gateway API is not available"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("studio daemon shutting down")
	return nil
}

// build wires the daemon's components around an open store.
func build(cfg *config.Config, st *store.Store, sessionID string, logger *slog.Logger) (*daemon.Daemon, error) {
	notifier := notifications.NewService(cfg)

	board := registry.NewControlBoard()
	reg := registry.New(st, sessionID, board.Bind(registry.DefaultControlIDs()), registry.WithLogger(logger))

	gw, err := gateway.NewFromConfig(cfg, st, gateway.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	inv := invoker.New(gw, reg,
		invoker.WithLogger(logger),
		invoker.WithTimeout(cfg.InvokerTimeout()),
		invoker.WithNotifier(notifier),
	)
	pipeline := batch.New(gw.BatchSynthesizer(),
		batch.WithPacer(batch.FixedPacer{Interval: cfg.BatchPacing()}),
		batch.WithObserver(daemon.BatchRecorder(st, notifier, logger)),
		batch.WithLogger(logger),
	)

	return daemon.New(cfg, daemon.Components{
		Store:     st,
		Registry:  reg,
		Controls:  board,
		Gateway:   gw,
		Invoker:   inv,
		Batch:     pipeline,
		Notifier:  notifier,
		SessionID: sessionID,
	}, logger)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "studiod.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("project_root", cfg.Paths.ProjectRoot),
		logging.String("bind", cfg.API.Bind),
		logging.Bool("api_token_set", strings.TrimSpace(cfg.API.Token) != ""),
		logging.Bool("gemini_key_present", strings.TrimSpace(cfg.Gemini.APIKey) != ""),
		logging.Bool("tts_key_present", strings.TrimSpace(cfg.TTS.APIKey) != ""),
		logging.Bool("copywriting_webhook_set", strings.TrimSpace(cfg.Copywriting.WebhookURL) != ""),
		logging.Bool("mirror_enabled", cfg.Mirror.Enabled),
		logging.String("image_format", cfg.Images.OutputFormat),
		logging.Duration("invoker_timeout", cfg.InvokerTimeout()),
		logging.Duration("batch_pacing", cfg.BatchPacing()),
	)
}
