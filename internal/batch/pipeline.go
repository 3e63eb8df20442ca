package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"studio/internal/logging"
	"studio/internal/services"
)

var (
	// ErrAlreadyRunning is returned when a run is started while another is in
	// progress. No items are created.
	ErrAlreadyRunning = fmt.Errorf("%w: batch already running", services.ErrConflict)
	// ErrIncompleteConfig means the shared TTS credentials are missing.
	ErrIncompleteConfig = services.NewFailure(services.ErrValidation, "请先保存TTS配置")
	// ErrNoInput means no input text was sent at all.
	ErrNoInput = services.NewFailure(services.ErrValidation, "请输入批量文本")
	// ErrNoValidInput means input was sent but every line was blank.
	ErrNoValidInput = services.NewFailure(services.ErrValidation, "没有有效的文本内容")
)

// Credentials is the shared speech configuration every item is synthesized with.
type Credentials struct {
	APIKey         string `json:"apiKey"`
	PromptAudioURL string `json:"promptAudioUrl"`
	PromptText     string `json:"promptText"`
}

// Complete reports whether every credential field is set.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.APIKey) != "" &&
		strings.TrimSpace(c.PromptAudioURL) != "" &&
		strings.TrimSpace(c.PromptText) != ""
}

// Request starts a batch run.
type Request struct {
	ProjectPath   string
	Credentials   Credentials
	Input         string
	AuxiliaryText string
}

// SynthesisRequest is one text-to-speech call.
type SynthesisRequest struct {
	ProjectPath string
	Credentials Credentials
	Text        string
	EmoText     string
	UseEmoText  bool
}

// SynthesisResult is the outcome of a successful synthesis.
type SynthesisResult struct {
	Filename string
}

// Synthesizer performs one remote speech generation.
type Synthesizer interface {
	GenerateTTS(ctx context.Context, req SynthesisRequest) (SynthesisResult, error)
}

// Snapshot is a copy of a run's state handed to observers and status readers.
type Snapshot struct {
	RunID       string    `json:"run_id"`
	ProjectPath string    `json:"project_path"`
	Running     bool      `json:"running"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
	Items       []Item    `json:"items"`
	Report      Report    `json:"report"`
}

// Observer is called after every item transition and once when the run
// finishes. It runs on the pipeline goroutine; slow observers slow the run.
type Observer interface {
	Observe(ctx context.Context, snap Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, snap Snapshot)

func (f ObserverFunc) Observe(ctx context.Context, snap Snapshot) { f(ctx, snap) }

// Pipeline drives batch items through a Synthesizer strictly one at a time.
type Pipeline struct {
	synth     Synthesizer
	pacer     Pacer
	observers []Observer
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	running atomic.Bool
	wg      sync.WaitGroup

	mu  sync.Mutex
	run *run
}

type run struct {
	id          string
	projectPath string
	credentials Credentials
	items       []Item
	startedAt   time.Time
	finishedAt  time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithPacer replaces the default fixed pacing.
func WithPacer(p Pacer) Option {
	return func(pl *Pipeline) {
		if p != nil {
			pl.pacer = p
		}
	}
}

// WithObserver adds a render hook.
func WithObserver(o Observer) Option {
	return func(pl *Pipeline) {
		if o != nil {
			pl.observers = append(pl.observers, o)
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(pl *Pipeline) {
		pl.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(pl *Pipeline) {
		if now != nil {
			pl.now = now
		}
	}
}

// New constructs a pipeline around synth.
func New(synth Synthesizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		synth:  synth,
		pacer:  FixedPacer{Interval: DefaultPacing},
		logger: logging.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "batch")
	return p
}

// Running reports whether a run is in progress.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Start validates req, creates the run's items, and processes them on a new
// goroutine. It returns the initial snapshot.
func (p *Pipeline) Start(ctx context.Context, req Request) (Snapshot, error) {
	r, err := p.begin(req)
	if err != nil {
		return Snapshot{}, err
	}
	snap := p.Snapshot()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.running.Store(false)
		p.execute(ctx, r)
	}()
	return snap, nil
}

// Wait blocks until every run launched by Start has returned, including its
// final observer notification.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Run validates req and processes every item before returning the report.
func (p *Pipeline) Run(ctx context.Context, req Request) (Report, error) {
	r, err := p.begin(req)
	if err != nil {
		return Report{}, err
	}
	defer p.running.Store(false)
	return p.execute(ctx, r), nil
}

// Snapshot returns a copy of the latest run, or a zero snapshot when no run
// has started.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Pipeline) begin(req Request) (*run, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	r, err := p.prepare(req)
	if err != nil {
		p.running.Store(false)
		return nil, err
	}
	p.mu.Lock()
	p.run = r
	p.mu.Unlock()
	return r, nil
}

func (p *Pipeline) prepare(req Request) (*run, error) {
	if !req.Credentials.Complete() {
		return nil, ErrIncompleteConfig
	}
	if req.Input == "" {
		return nil, ErrNoInput
	}
	items := SplitInput(req.Input, req.AuxiliaryText)
	if len(items) == 0 {
		return nil, ErrNoValidInput
	}
	now := p.now()
	for i := range items {
		items[i].UpdatedAt = now
	}
	return &run{
		id:          p.newID(),
		projectPath: req.ProjectPath,
		credentials: req.Credentials,
		items:       items,
		startedAt:   now,
	}, nil
}

func (p *Pipeline) execute(ctx context.Context, r *run) Report {
	logger := p.logger.With(logging.String(logging.FieldRunID, r.id))
	logger.Info("batch run started", logging.Int("items", len(r.items)), logging.String(logging.FieldProject, r.projectPath))
	p.notify(ctx)

	for i := range r.items {
		p.mu.Lock()
		item := r.items[i]
		p.mu.Unlock()
		if item.Status != StatusPending {
			continue
		}
		itemLogger := logger.With(logging.Int(logging.FieldSeq, item.Seq))

		if ctx.Err() != nil {
			p.finishItem(r, i, StatusFailed, "cancelled", "")
			p.notify(ctx)
			continue
		}

		if err := p.advance(r, i, StatusProcessing); err != nil {
			itemLogger.Error("batch item transition rejected", logging.Error(err))
			continue
		}
		p.notify(ctx)

		result, err := p.synth.GenerateTTS(ctx, SynthesisRequest{
			ProjectPath: r.projectPath,
			Credentials: r.credentials,
			Text:        item.Text,
			EmoText:     item.AuxText,
			UseEmoText:  item.AuxText != "",
		})
		if err != nil {
			reason := services.Reason(err)
			p.finishItem(r, i, StatusFailed, reason, "")
			logging.WarnWithContext(itemLogger, "batch item failed", "batch_item_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the TTS endpoint and credentials"),
				logging.String(logging.FieldImpact, "item marked failed; run continues"),
			)
		} else {
			p.finishItem(r, i, StatusCompleted, "", result.Filename)
			itemLogger.Info("batch item completed", logging.String("filename", result.Filename))
		}
		p.notify(ctx)

		_ = p.pacer.Wait(ctx)
	}

	p.mu.Lock()
	r.finishedAt = p.now()
	report := summarize(r.items)
	p.mu.Unlock()

	logger.Info("batch run finished",
		logging.String("summary", report.String()),
		logging.Int("failed", report.Failed),
		logging.String(logging.FieldEventType, "batch_completed"),
	)
	p.notify(ctx)
	return report
}

func (p *Pipeline) advance(r *run, idx int, to Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return r.items[idx].transition(to, p.now())
}

func (p *Pipeline) finishItem(r *run, idx int, to Status, message, filename string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	item := &r.items[idx]
	if err := item.transition(to, p.now()); err != nil {
		p.logger.Error("batch item transition rejected", logging.Error(err))
		return
	}
	item.Message = message
	item.Filename = filename
}

func (p *Pipeline) notify(ctx context.Context) {
	if len(p.observers) == 0 {
		return
	}
	snap := p.Snapshot()
	for _, o := range p.observers {
		o.Observe(context.WithoutCancel(ctx), snap)
	}
}

func (p *Pipeline) snapshotLocked() Snapshot {
	r := p.run
	if r == nil {
		return Snapshot{Running: p.running.Load()}
	}
	items := make([]Item, len(r.items))
	copy(items, r.items)
	return Snapshot{
		RunID:       r.id,
		ProjectPath: r.projectPath,
		Running:     p.running.Load() && r.finishedAt.IsZero(),
		StartedAt:   r.startedAt,
		FinishedAt:  r.finishedAt,
		Items:       items,
		Report:      summarize(items),
	}
}
