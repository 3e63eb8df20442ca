package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"studio/internal/logging"
	"studio/internal/services"
)

// ErrControlBusy is returned when the control bound to a category already
// belongs to a live task.
var ErrControlBusy = fmt.Errorf("%w: control is busy", services.ErrConflict)

// Task is one outstanding remote generation call.
type Task struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	StartedAt time.Time `json:"started_at"`
}

// SessionStore persists the full task set for one session. SaveTasks must
// replace whatever was stored before.
type SessionStore interface {
	LoadTasks(ctx context.Context, sessionID string) ([]Task, error)
	SaveTasks(ctx context.Context, sessionID string, tasks []Task) error
}

// Registry records which generation tasks are outstanding in the current
// session. The persisted set is the only copy: every operation reads it from
// the store, and every mutation writes the whole set back.
type Registry struct {
	mu       sync.Mutex
	store    SessionStore
	session  string
	controls ControlMap
	logger   *slog.Logger
	now      func() time.Time

	lastID string
	dup    int
}

// Option customizes a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithClock overrides the time source used for task ids and start times.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New constructs a registry bound to sessionID. controls is resolved once
// here and never changes.
func New(store SessionStore, sessionID string, controls ControlMap, opts ...Option) *Registry {
	r := &Registry{
		store:    store,
		session:  sessionID,
		controls: controls,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "registry")
	return r
}

// SessionID returns the session the registry persists under.
func (r *Registry) SessionID() string {
	return r.session
}

// NewTask builds a task for category with a fresh identifier of the form
// <imageType>-<mode>-<unix-millis>. Identifiers minted within the same
// millisecond get a numeric suffix.
func (r *Registry) NewTask(category Category) Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	id := fmt.Sprintf("%s-%s-%d", category.ImageType(), category.Mode(), now.UnixMilli())
	if id == r.lastID {
		r.dup++
		r.lastID = id
		id = fmt.Sprintf("%s-%d", id, r.dup)
	} else {
		r.lastID = id
		r.dup = 0
	}
	return Task{ID: id, Category: category, StartedAt: now.UTC()}
}

// ResolveControl maps a category to its control. Unknown categories have no
// control, which is not an error.
func (r *Registry) ResolveControl(category Category) (Control, bool) {
	return r.controls.Resolve(category)
}

// Register inserts task and persists the registry. A category without a
// bound control is still recorded; the binding miss is only logged.
func (r *Registry) Register(ctx context.Context, task Task) error {
	if task.ID == "" {
		return services.Wrap(services.ErrValidation, "registry", "register", "task id is required", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	control, bound := r.controls.Resolve(task.Category)
	if bound && control.Busy() {
		return fmt.Errorf("%w: %s", ErrControlBusy, control.ID())
	}

	tasks, err := r.load(ctx)
	if err != nil {
		return err
	}
	for _, existing := range tasks {
		if existing.ID == task.ID {
			return services.Wrap(services.ErrConflict, "registry", "register", "task already registered: "+task.ID, nil)
		}
	}
	if task.StartedAt.IsZero() {
		task.StartedAt = r.now().UTC()
	}
	tasks = append(tasks, task)
	if err := r.save(ctx, tasks); err != nil {
		return err
	}

	logger := r.logger.With(logging.TaskID(task.ID), logging.String(logging.FieldCategory, string(task.Category)))
	if bound {
		control.SetBusy(true)
		logger.Debug("task registered", logging.String("control", control.ID()))
	} else {
		logger.Debug("task registered without control binding")
	}
	return nil
}

// Unregister removes the task with id. Removing an unknown id is a no-op and
// leaves the persisted registry untouched.
func (r *Registry) Unregister(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.load(ctx)
	if err != nil {
		return err
	}
	var (
		removed Task
		found   bool
	)
	kept := tasks[:0]
	for _, task := range tasks {
		if task.ID == id && !found {
			removed = task
			found = true
			continue
		}
		kept = append(kept, task)
	}
	if !found {
		return nil
	}
	if err := r.save(ctx, kept); err != nil {
		return err
	}
	if control, ok := r.controls.Resolve(removed.Category); ok && !hasCategory(kept, removed.Category) {
		control.SetBusy(false)
	}
	r.logger.Debug("task unregistered", logging.TaskID(id))
	return nil
}

// ListActive returns the persisted tasks ordered by start time. It never
// writes.
func (r *Registry) ListActive(ctx context.Context) ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].StartedAt.Before(tasks[j].StartedAt)
	})
	return tasks, nil
}

// Restore re-applies busy state to every control that has a persisted task.
// It is the reload path and returns the number of live tasks found.
func (r *Registry) Restore(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	for _, task := range tasks {
		if control, ok := r.controls.Resolve(task.Category); ok {
			control.SetBusy(true)
		}
	}
	return len(tasks), nil
}

func (r *Registry) load(ctx context.Context) ([]Task, error) {
	if r.store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "registry", "load", "session store unavailable", nil)
	}
	tasks, err := r.store.LoadTasks(ctx, r.session)
	if err != nil {
		if errors.Is(err, services.ErrPersistence) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrPersistence, "registry", "load", "read session tasks", err)
	}
	return tasks, nil
}

func (r *Registry) save(ctx context.Context, tasks []Task) error {
	if err := r.store.SaveTasks(ctx, r.session, tasks); err != nil {
		if errors.Is(err, services.ErrPersistence) {
			return err
		}
		return services.Wrap(services.ErrPersistence, "registry", "save", "write session tasks", err)
	}
	return nil
}

func hasCategory(tasks []Task, category Category) bool {
	for _, task := range tasks {
		if task.Category == category {
			return true
		}
	}
	return false
}
