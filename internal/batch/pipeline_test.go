package batch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"studio/internal/batch"
	"studio/internal/services"
)

var creds = batch.Credentials{APIKey: "k", PromptAudioURL: "https://example.com/a.wav", PromptText: "hi"}

// recordingSynth records call order and checks that calls never overlap.
type recordingSynth struct {
	mu       sync.Mutex
	inFlight int
	overlap  bool
	calls    []string
	fail     map[string]error
	block    chan struct{}
	started  chan struct{}
}

func (s *recordingSynth) GenerateTTS(ctx context.Context, req batch.SynthesisRequest) (batch.SynthesisResult, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > 1 {
		s.overlap = true
	}
	s.calls = append(s.calls, req.Text)
	n := len(s.calls)
	s.mu.Unlock()

	if s.started != nil {
		select {
		case s.started <- struct{}{}:
		default:
		}
	}
	if s.block != nil {
		<-s.block
	}

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()

	if err, ok := s.fail[req.Text]; ok {
		return batch.SynthesisResult{}, err
	}
	return batch.SynthesisResult{Filename: fmt.Sprintf("%d.wav", n)}, nil
}

func newPipeline(synth batch.Synthesizer, opts ...batch.Option) *batch.Pipeline {
	opts = append([]batch.Option{batch.WithPacer(batch.FixedPacer{})}, opts...)
	return batch.New(synth, opts...)
}

func TestRunProcessesSequentiallyAndIsolatesFailures(t *testing.T) {
	synth := &recordingSynth{fail: map[string]error{
		"two": services.NewFailure(services.ErrSemantic, "x"),
	}}

	var (
		mu        sync.Mutex
		snapshots []batch.Snapshot
	)
	observer := batch.ObserverFunc(func(_ context.Context, snap batch.Snapshot) {
		mu.Lock()
		snapshots = append(snapshots, snap)
		mu.Unlock()
	})

	p := newPipeline(synth, batch.WithObserver(observer))
	report, err := p.Run(context.Background(), batch.Request{
		ProjectPath: "/tmp/project",
		Credentials: creds,
		Input:       "one\ntwo\nthree",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if synth.overlap {
		t.Fatal("synthesizer calls overlapped")
	}
	if got := fmt.Sprint(synth.calls); got != "[one two three]" {
		t.Fatalf("unexpected call order %s", got)
	}
	if report.String() != "2/3 succeeded" {
		t.Fatalf("unexpected report %q", report.String())
	}
	if report.Message() != "批量生成完成！成功 2/3 个" {
		t.Fatalf("unexpected message %q", report.Message())
	}

	final := p.Snapshot()
	if final.Running {
		t.Fatal("expected run to be finished")
	}
	want := []batch.Status{batch.StatusCompleted, batch.StatusFailed, batch.StatusCompleted}
	for i, item := range final.Items {
		if item.Status != want[i] {
			t.Fatalf("item %d status %s, want %s", item.Seq, item.Status, want[i])
		}
	}
	if final.Items[1].Message != "x" {
		t.Fatalf("expected failure reason x, got %q", final.Items[1].Message)
	}
	if final.Items[2].Filename != "3.wav" {
		t.Fatalf("expected filename recorded, got %q", final.Items[2].Filename)
	}

	// two transitions per item plus the start and finish notifications
	if len(snapshots) != 2*3+2 {
		t.Fatalf("expected %d observer calls, got %d", 2*3+2, len(snapshots))
	}
	// item K must not be processing before K-1 is terminal
	for _, snap := range snapshots {
		for k := 1; k < len(snap.Items); k++ {
			if snap.Items[k].Status != batch.StatusPending && !snap.Items[k-1].Status.IsTerminal() {
				t.Fatalf("item %d left pending state before item %d finished", snap.Items[k].Seq, snap.Items[k-1].Seq)
			}
		}
	}
}

func TestRunAllFailuresStillClearsRunningFlag(t *testing.T) {
	boom := errors.New("connection refused")
	synth := &recordingSynth{fail: map[string]error{"a": boom, "b": boom}}
	p := newPipeline(synth)

	report, err := p.Run(context.Background(), batch.Request{Credentials: creds, Input: "a\nb"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Completed != 0 || report.Failed != 2 || report.Total != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if p.Running() {
		t.Fatal("running flag must be cleared after an all-failed run")
	}
	for _, item := range p.Snapshot().Items {
		if item.Status == batch.StatusProcessing {
			t.Fatalf("item %d left processing", item.Seq)
		}
	}
}

func TestGuardsRunBeforeItemsAreCreated(t *testing.T) {
	tests := []struct {
		name string
		req  batch.Request
		want error
	}{
		{"missing credentials", batch.Request{Credentials: batch.Credentials{APIKey: "k"}, Input: "hello"}, batch.ErrIncompleteConfig},
		{"empty input", batch.Request{Credentials: creds, Input: ""}, batch.ErrNoInput},
		{"only spaces", batch.Request{Credentials: creds, Input: "   "}, batch.ErrNoValidInput},
		{"only blank lines", batch.Request{Credentials: creds, Input: "\n \r\n\t\n"}, batch.ErrNoValidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := &recordingSynth{}
			p := newPipeline(synth)
			_, err := p.Run(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation class, got %v", err)
			}
			if len(p.Snapshot().Items) != 0 {
				t.Fatal("no items should be created when a guard fails")
			}
			if p.Running() {
				t.Fatal("running flag must be cleared after a guard failure")
			}
			if len(synth.calls) != 0 {
				t.Fatal("no synthesis should happen")
			}
		})
	}
}

func TestSecondStartWhileRunningIsNoop(t *testing.T) {
	synth := &recordingSynth{block: make(chan struct{}), started: make(chan struct{}, 1)}
	p := newPipeline(synth)

	first, err := p.Start(context.Background(), batch.Request{Credentials: creds, Input: "a\nb"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-synth.started

	_, err = p.Start(context.Background(), batch.Request{Credentials: creds, Input: "x\ny\nz"})
	if !errors.Is(err, batch.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	snap := p.Snapshot()
	if snap.RunID != first.RunID || len(snap.Items) != 2 {
		t.Fatalf("second start replaced the run: %+v", snap)
	}

	close(synth.block)
	deadline := time.Now().Add(2 * time.Second)
	for p.Running() {
		if time.Now().After(deadline) {
			t.Fatal("run did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := p.Snapshot().Report.String(); got != "2/2 succeeded" {
		t.Fatalf("unexpected report %q", got)
	}
}

func TestNewRunReplacesItemsWholesale(t *testing.T) {
	p := newPipeline(&recordingSynth{})
	if _, err := p.Run(context.Background(), batch.Request{Credentials: creds, Input: "a\nb\nc"}); err != nil {
		t.Fatal(err)
	}
	first := p.Snapshot().RunID
	if _, err := p.Run(context.Background(), batch.Request{Credentials: creds, Input: "d"}); err != nil {
		t.Fatal(err)
	}
	snap := p.Snapshot()
	if snap.RunID == first {
		t.Fatal("expected a new run id")
	}
	if len(snap.Items) != 1 || snap.Items[0].Seq != 1 || snap.Items[0].Text != "d" {
		t.Fatalf("expected only the new run's items, got %+v", snap.Items)
	}
}

func TestAuxTextEnablesEmotion(t *testing.T) {
	var got []batch.SynthesisRequest
	synth := synthFunc(func(_ context.Context, req batch.SynthesisRequest) (batch.SynthesisResult, error) {
		got = append(got, req)
		return batch.SynthesisResult{Filename: "1.wav"}, nil
	})
	p := newPipeline(synth)
	if _, err := p.Run(context.Background(), batch.Request{Credentials: creds, Input: "a\nb", AuxiliaryText: " 开心 "}); err != nil {
		t.Fatal(err)
	}
	for _, req := range got {
		if !req.UseEmoText || req.EmoText != "开心" {
			t.Fatalf("expected shared emotion text, got %+v", req)
		}
	}

	got = nil
	if _, err := p.Run(context.Background(), batch.Request{Credentials: creds, Input: "c"}); err != nil {
		t.Fatal(err)
	}
	if got[0].UseEmoText {
		t.Fatal("emotion must be disabled without aux text")
	}
}

func TestCancelledRunFailsRemainingItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	synth := synthFunc(func(context.Context, batch.SynthesisRequest) (batch.SynthesisResult, error) {
		cancel()
		return batch.SynthesisResult{Filename: "1.wav"}, nil
	})
	p := newPipeline(synth)
	report, err := p.Run(ctx, batch.Request{Credentials: creds, Input: "a\nb\nc"})
	if err != nil {
		t.Fatal(err)
	}
	if report.Completed != 1 || report.Failed != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	items := p.Snapshot().Items
	if items[2].Message != "cancelled" {
		t.Fatalf("expected cancelled reason, got %q", items[2].Message)
	}
}

func TestPacingWaitsAfterEveryItem(t *testing.T) {
	pacer := &countingPacer{}
	p := batch.New(&recordingSynth{}, batch.WithPacer(pacer))
	if _, err := p.Run(context.Background(), batch.Request{Credentials: creds, Input: "a\nb\nc"}); err != nil {
		t.Fatal(err)
	}
	if pacer.waits != 3 {
		t.Fatalf("expected 3 pacing waits, got %d", pacer.waits)
	}
}

type countingPacer struct{ waits int }

func (c *countingPacer) Wait(context.Context) error {
	c.waits++
	return nil
}

type synthFunc func(context.Context, batch.SynthesisRequest) (batch.SynthesisResult, error)

func (f synthFunc) GenerateTTS(ctx context.Context, req batch.SynthesisRequest) (batch.SynthesisResult, error) {
	return f(ctx, req)
}
