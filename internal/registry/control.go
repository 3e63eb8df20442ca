package registry

import (
	"sort"
	"sync"
)

// Control is the handle a Task binds to while it is outstanding. A busy
// control must not start another task.
type Control interface {
	ID() string
	SetBusy(busy bool)
	Busy() bool
}

// ControlMap resolves categories to controls. It is built once at wiring
// time and never consulted by identifier afterwards.
type ControlMap map[Category]Control

// Resolve returns the control bound to category. Unknown categories resolve
// to no control.
func (m ControlMap) Resolve(category Category) (Control, bool) {
	if m == nil {
		return nil, false
	}
	control, ok := m[category]
	if !ok || control == nil {
		return nil, false
	}
	return control, true
}

// DefaultControlIDs returns the generate-button identifiers the web front-end
// uses for each category.
func DefaultControlIDs() map[Category]string {
	return map[Category]string{
		CategoryCharacterText:       "btn-character-text-generate",
		CategoryCharacterReference:  "btn-character-ref-generate",
		CategoryBackgroundText:      "btn-background-text-generate",
		CategoryBackgroundReference: "btn-background-ref-generate",
	}
}

// ControlState is a point-in-time view of one control.
type ControlState struct {
	ID   string `json:"id"`
	Busy bool   `json:"busy"`
}

// ControlBoard owns the daemon's controls so clients can render which
// generate buttons are disabled.
type ControlBoard struct {
	mu       sync.Mutex
	controls map[string]*boardControl
}

// NewControlBoard creates an empty board.
func NewControlBoard() *ControlBoard {
	return &ControlBoard{controls: make(map[string]*boardControl)}
}

// Bind creates (or reuses) a control per binding and returns the resulting map.
func (b *ControlBoard) Bind(bindings map[Category]string) ControlMap {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(ControlMap, len(bindings))
	for category, id := range bindings {
		if id == "" {
			continue
		}
		control, ok := b.controls[id]
		if !ok {
			control = &boardControl{id: id}
			b.controls[id] = control
		}
		out[category] = control
	}
	return out
}

// Snapshot lists every control sorted by identifier.
func (b *ControlBoard) Snapshot() []ControlState {
	b.mu.Lock()
	controls := make([]*boardControl, 0, len(b.controls))
	for _, c := range b.controls {
		controls = append(controls, c)
	}
	b.mu.Unlock()

	out := make([]ControlState, 0, len(controls))
	for _, c := range controls {
		out = append(out, ControlState{ID: c.ID(), Busy: c.Busy()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type boardControl struct {
	mu   sync.Mutex
	id   string
	busy bool
}

func (c *boardControl) ID() string { return c.id }

func (c *boardControl) SetBusy(busy bool) {
	c.mu.Lock()
	c.busy = busy
	c.mu.Unlock()
}

func (c *boardControl) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}
