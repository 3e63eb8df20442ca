package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"studio/internal/batch"
	"studio/internal/config"
	"studio/internal/gateway"
	"studio/internal/invoker"
	"studio/internal/logging"
	"studio/internal/notifications"
	"studio/internal/preflight"
	"studio/internal/registry"
	"studio/internal/store"
)

// Version is reported by the status endpoint.
const Version = "0.1.0"

// Components are the collaborators a Daemon serves.
type Components struct {
	Store     *store.Store
	Registry  *registry.Registry
	Controls  *registry.ControlBoard
	Gateway   *gateway.Service
	Invoker   *invoker.Invoker
	Batch     *batch.Pipeline
	Notifier  notifications.Service
	SessionID string
}

// Daemon owns the session lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	registry *registry.Registry
	controls *registry.ControlBoard
	gateway  *gateway.Service
	invoker  *invoker.Invoker
	batch    *batch.Pipeline
	notifier notifications.Service
	session  string

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running   atomic.Bool
	startedAt time.Time

	// mu guards ctx, cancel and preflight.
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	preflight []preflight.Result
}

// Status represents daemon runtime information.
type Status struct {
	Session      string
	Running      bool
	StartedAt    time.Time
	RunningBatch bool
	ActiveTasks  int
	DatabasePath string
	LockFilePath string
	Preflight    []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, c Components, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || c.Store == nil || c.Registry == nil || c.Gateway == nil || c.Invoker == nil || c.Batch == nil {
		return nil, errors.New("daemon requires config, store, registry, gateway, invoker, and batch pipeline")
	}
	if c.Controls == nil {
		c.Controls = registry.NewControlBoard()
	}
	if c.Notifier == nil {
		c.Notifier = notifications.NewService(nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    c.Store,
		registry: c.Registry,
		controls: c.Controls,
		gateway:  c.Gateway,
		invoker:  c.Invoker,
		batch:    c.Batch,
		notifier: c.Notifier,
		session:  c.SessionID,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	if d.session == "" {
		d.session = c.Registry.SessionID()
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, opens the session, and begins serving.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another studio daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.ctx, d.cancel = runCtx, cancel
	d.mu.Unlock()
	if err := d.openSession(runCtx); err != nil {
		d.abortStart()
		return err
	}
	d.refreshPreflight(runCtx)

	if err := d.api.start(runCtx); err != nil {
		d.abortStart()
		return err
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("studio daemon started",
		logging.String("lock", d.lockPath),
		logging.String("bind", d.api.address()),
		logging.String(logging.FieldSessionID, d.session),
	)
	if err := d.notifier.Publish(runCtx, notifications.EventDaemonStarted, notifications.Payload{"bind": d.api.address()}); err != nil {
		d.logger.Debug("startup notification not sent", logging.Error(err))
	}
	return nil
}

func (d *Daemon) abortStart() {
	_ = d.lock.Unlock()
	d.endLifetime()
}

// endLifetime cancels and clears the daemon context.
func (d *Daemon) endLifetime() {
	d.mu.Lock()
	cancel := d.cancel
	d.ctx, d.cancel = nil, nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// openSession records this process as the live session, drops tasks that
// belonged to earlier processes, and closes out a batch run they left
// unfinished.
func (d *Daemon) openSession(ctx context.Context) error {
	if err := d.store.BeginSession(ctx, d.session, time.Now()); err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	pruned, err := d.store.PruneStaleTasks(ctx, d.session)
	if err != nil {
		return fmt.Errorf("prune stale tasks: %w", err)
	}
	if pruned > 0 {
		logging.WarnWithContext(d.logger, "discarded tasks from a previous session", "stale_tasks_pruned",
			logging.Int64("count", pruned),
			logging.String(logging.FieldImpact, "generations interrupted by the last shutdown will not report results"),
			logging.String(logging.FieldErrorHint, "re-run the affected generations"),
		)
	}
	interrupted, err := d.store.MarkInterruptedBatch(ctx)
	if err != nil {
		return fmt.Errorf("close interrupted batch: %w", err)
	}
	if interrupted {
		logging.WarnWithContext(d.logger, "previous batch run was interrupted", "batch_interrupted",
			logging.String(logging.FieldImpact, "unfinished batch items were marked failed"),
			logging.String(logging.FieldErrorHint, "re-submit the failed lines"),
		)
	}
	restored, err := d.registry.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore registry: %w", err)
	}
	if restored > 0 {
		d.logger.Info("registry restored", logging.Int("tasks", restored))
	}
	return nil
}

func (d *Daemon) refreshPreflight(ctx context.Context) {
	results := preflight.RunAll(ctx, d.cfg)
	for _, r := range preflight.Failed(results) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldImpact, "operations that depend on this check will fail"),
			logging.String(logging.FieldErrorHint, "update config.toml and restart the daemon"),
		)
	}
	d.mu.Lock()
	d.preflight = results
	d.mu.Unlock()
}

// Stop stops serving, waits for an in-flight batch run to record its
// cancelled items, and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.endLifetime()
	d.api.stop()
	d.batch.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("studio daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.batch.Wait()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the address the API listens on, or "" when not serving.
func (d *Daemon) Addr() string {
	return d.api.address()
}

// SessionID returns the daemon session identifier.
func (d *Daemon) SessionID() string {
	return d.session
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	active := 0
	if tasks, err := d.registry.ListActive(ctx); err == nil {
		active = len(tasks)
	} else {
		d.logger.Warn("list active tasks failed", logging.Error(err))
	}
	d.mu.Lock()
	checks := append([]preflight.Result(nil), d.preflight...)
	d.mu.Unlock()
	return Status{
		Session:      d.session,
		Running:      d.running.Load(),
		StartedAt:    d.startedAt,
		RunningBatch: d.batch.Running(),
		ActiveTasks:  active,
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		Preflight:    checks,
	}
}

// StartBatch starts a batch run bound to the daemon's lifetime rather than
// the request that submitted it.
func (d *Daemon) StartBatch(req batch.Request) (batch.Snapshot, error) {
	// Held across Start so Stop cannot cancel and wait between the context
	// read and the run being tracked.
	d.mu.Lock()
	defer d.mu.Unlock()
	ctx := d.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return d.batch.Start(ctx, req)
}

// CurrentBatch returns the live run, or the last persisted run when this
// process has not started one.
func (d *Daemon) CurrentBatch(ctx context.Context) (batch.Snapshot, error) {
	snap := d.batch.Snapshot()
	if snap.RunID != "" {
		return snap, nil
	}
	stored, ok, err := d.store.LatestBatch(ctx)
	if err != nil {
		return batch.Snapshot{}, err
	}
	if !ok {
		return batch.Snapshot{}, nil
	}
	return stored, nil
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.NtfyTopic == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTestNotification, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

func pid() int {
	return os.Getpid()
}
