package registry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"studio/internal/registry"
	"studio/internal/services"
)

type failingStore struct {
	loadErr error
	saveErr error
}

func (f failingStore) LoadTasks(context.Context, string) ([]registry.Task, error) {
	return nil, f.loadErr
}

func (f failingStore) SaveTasks(context.Context, string, []registry.Task) error {
	return f.saveErr
}

func newRegistry(t *testing.T, store registry.SessionStore) (*registry.Registry, registry.ControlMap) {
	t.Helper()
	board := registry.NewControlBoard()
	controls := board.Bind(registry.DefaultControlIDs())
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg := registry.New(store, "session-1", controls, registry.WithClock(func() time.Time { return clock }))
	return reg, controls
}

func TestRegisterListUnregister(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	reg, controls := newRegistry(t, store)

	task := reg.NewTask(registry.CategoryCharacterText)
	if err := reg.Register(ctx, task); err != nil {
		t.Fatalf("Register: %v", err)
	}

	active, err := reg.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].ID != task.ID {
		t.Fatalf("expected task %s to be active, got %+v", task.ID, active)
	}
	if control, _ := controls.Resolve(registry.CategoryCharacterText); !control.Busy() {
		t.Fatal("expected bound control to be busy")
	}

	if err := reg.Unregister(ctx, task.ID); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	active, _ = reg.ListActive(ctx)
	if len(active) != 0 {
		t.Fatalf("expected no active tasks, got %+v", active)
	}
	if control, _ := controls.Resolve(registry.CategoryCharacterText); control.Busy() {
		t.Fatal("expected control to be released")
	}
}

func TestUnregisterUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	reg, _ := newRegistry(t, store)

	task := reg.NewTask(registry.CategoryBackgroundText)
	if err := reg.Register(ctx, task); err != nil {
		t.Fatalf("Register: %v", err)
	}
	saves := store.Saves()

	if err := reg.Unregister(ctx, "does-not-exist"); err != nil {
		t.Fatalf("Unregister unknown returned error: %v", err)
	}
	if store.Saves() != saves {
		t.Fatal("unregistering an unknown id must not persist")
	}
	active, _ := reg.ListActive(ctx)
	if len(active) != 1 || active[0].ID != task.ID {
		t.Fatalf("registry changed after unknown unregister: %+v", active)
	}
}

func TestListActiveDoesNotPersist(t *testing.T) {
	store := registry.NewMemoryStore()
	reg, _ := newRegistry(t, store)
	if _, err := reg.ListActive(context.Background()); err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if store.Saves() != 0 {
		t.Fatalf("ListActive wrote %d times", store.Saves())
	}
}

func TestRegisterRejectsBusyControl(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t, registry.NewMemoryStore())

	first := reg.NewTask(registry.CategoryCharacterReference)
	if err := reg.Register(ctx, first); err != nil {
		t.Fatalf("Register: %v", err)
	}
	second := reg.NewTask(registry.CategoryCharacterReference)
	err := reg.Register(ctx, second)
	if !errors.Is(err, registry.ErrControlBusy) || !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected busy control conflict, got %v", err)
	}

	other := reg.NewTask(registry.CategoryBackgroundReference)
	if err := reg.Register(ctx, other); err != nil {
		t.Fatalf("different control should be free: %v", err)
	}
}

func TestRegisterWithoutControlBindingStillRecords(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	reg := registry.New(store, "s", nil)

	task := registry.Task{ID: "future-kind-1", Category: registry.Category("video-by-text")}
	if err := reg.Register(ctx, task); err != nil {
		t.Fatalf("unbound category should not fail: %v", err)
	}
	if _, ok := reg.ResolveControl(task.Category); ok {
		t.Fatal("expected no control for unknown category")
	}
	active, _ := reg.ListActive(ctx)
	if len(active) != 1 {
		t.Fatalf("expected task recorded, got %+v", active)
	}
}

func TestNewTaskIDsAreUniqueWithinMillisecond(t *testing.T) {
	reg, _ := newRegistry(t, registry.NewMemoryStore())
	a := reg.NewTask(registry.CategoryCharacterText)
	b := reg.NewTask(registry.CategoryCharacterText)
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, both %q", a.ID)
	}
	if a.ID != "character-text-1772366400000" {
		t.Fatalf("unexpected id format %q", a.ID)
	}
}

func TestRestoreMarksControlsBusy(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	_ = store.SaveTasks(ctx, "session-1", []registry.Task{{ID: "background-reference-1", Category: registry.CategoryBackgroundReference}})

	reg, controls := newRegistry(t, store)
	n, err := reg.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 restored task, got %d", n)
	}
	control, _ := controls.Resolve(registry.CategoryBackgroundReference)
	if !control.Busy() {
		t.Fatal("expected restored control to be busy")
	}
}

func TestPersistenceFailuresAreClassified(t *testing.T) {
	ctx := context.Background()
	reg := registry.New(failingStore{saveErr: errors.New("disk full")}, "s", nil)
	err := reg.Register(ctx, registry.Task{ID: "x", Category: registry.CategoryCharacterText})
	if !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	reg = registry.New(failingStore{loadErr: errors.New("corrupt")}, "s", nil)
	if _, err := reg.ListActive(ctx); !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected persistence error from ListActive, got %v", err)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	a := registry.New(store, "a", nil)
	b := registry.New(store, "b", nil)
	if err := a.Register(ctx, registry.Task{ID: "t1", Category: registry.CategoryCharacterText}); err != nil {
		t.Fatal(err)
	}
	active, _ := b.ListActive(ctx)
	if len(active) != 0 {
		t.Fatalf("session b should not see session a tasks: %+v", active)
	}
}
