package gateway

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"studio/internal/config"
	"studio/internal/logging"
	"studio/internal/mirror"
	"studio/internal/services/gemini"
	"studio/internal/services/summarizer"
	"studio/internal/services/tts"
	"studio/internal/store"
	"studio/internal/workspace"
)

// ImageGenerator produces one image from a prompt and optional references.
type ImageGenerator interface {
	Generate(ctx context.Context, req gemini.Request) (gemini.Image, error)
}

// SpeechSynthesizer produces audio for one line of text.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req tts.Request) ([]byte, error)
}

// Summarizer turns a video link into copywriting.
type Summarizer interface {
	Summarize(ctx context.Context, videoURL string) (summarizer.Result, error)
}

// HistoryStore keeps the free-create history.
type HistoryStore interface {
	AddHistory(ctx context.Context, entry store.HistoryEntry) (store.HistoryEntry, error)
	ListHistory(ctx context.Context) ([]store.HistoryEntry, error)
}

// Dependencies are the collaborators a Service talks to.
type Dependencies struct {
	Images     ImageGenerator
	Speech     SpeechSynthesizer
	Summarizer Summarizer
	History    HistoryStore
	Mirror     mirror.Uploader
	Opener     Opener
}

// Service implements every gateway operation against the local filesystem
// and the upstream clients. The daemon serves it over HTTP.
type Service struct {
	// mu serializes number allocation and writes inside project directories.
	mu sync.Mutex

	cfg        *config.Config
	images     ImageGenerator
	speech     SpeechSynthesizer
	summarizer Summarizer
	history    HistoryStore
	mirror     mirror.Uploader
	opener     Opener
	headless   func() bool
	logger     *slog.Logger
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithHeadless overrides desktop detection for the open-folder operations.
func WithHeadless(detect func() bool) Option {
	return func(s *Service) {
		if detect != nil {
			s.headless = detect
		}
	}
}

// New constructs a Service.
func New(cfg *config.Config, deps Dependencies, opts ...Option) *Service {
	s := &Service{
		cfg:        cfg,
		images:     deps.Images,
		speech:     deps.Speech,
		summarizer: deps.Summarizer,
		history:    deps.History,
		mirror:     deps.Mirror,
		opener:     deps.Opener,
		headless:   IsHeadless,
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mirror == nil {
		s.mirror = mirror.Disabled{}
	}
	if s.opener == nil {
		s.opener = SystemOpener{}
	}
	s.logger = logging.NewComponentLogger(s.logger, "gateway")
	return s
}

// NewFromConfig wires a Service to the real upstream clients described by cfg.
func NewFromConfig(cfg *config.Config, history HistoryStore, opts ...Option) (*Service, error) {
	uploader, err := mirror.New(cfg)
	if err != nil {
		return nil, err
	}
	deps := Dependencies{
		Images: gemini.NewClient(gemini.Config{
			APIKey:         cfg.Gemini.APIKey,
			BaseURL:        cfg.Gemini.BaseURL,
			Model:          cfg.Gemini.Model,
			TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
		}),
		Speech: tts.NewClient(tts.Config{
			Endpoint:       cfg.TTS.Endpoint,
			Model:          cfg.TTS.Model,
			Voice:          cfg.TTS.Voice,
			TimeoutSeconds: cfg.TTS.TimeoutSeconds,
		}),
		Summarizer: summarizer.NewClient(cfg.Copywriting.WebhookURL, cfg.Copywriting.TimeoutSeconds),
		History:    history,
		Mirror:     uploader,
	}
	return New(cfg, deps, opts...), nil
}

// DefaultTTSConfig returns the configured speech credentials.
func (s *Service) DefaultTTSConfig() TTSDefaults {
	return TTSDefaults{
		APIKey:             s.cfg.TTS.APIKey,
		PromptAudioURL:     s.cfg.TTS.PromptAudioURL,
		PromptText:         s.cfg.TTS.PromptText,
		DefaultProjectRoot: s.cfg.Paths.ProjectRoot,
	}
}

// writeArtifact writes data under the project and mirrors it when a mirror
// is configured. Mirror failures are logged; the local file is the artifact.
func (s *Service) writeArtifact(ctx context.Context, projectRoot, path string, data []byte) error {
	if err := workspace.WriteFileAtomic(path, data); err != nil {
		return err
	}
	if _, disabled := s.mirror.(mirror.Disabled); disabled {
		return nil
	}
	rel, err := filepath.Rel(projectRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	key := mirror.ObjectKey(filepath.Base(projectRoot), rel)
	url, err := s.mirror.Upload(ctx, key, data, workspace.MimeForPath(path))
	if err != nil {
		logging.WarnWithContext(s.logger, "artifact mirror upload failed", "mirror_upload_failed",
			logging.String("path", path),
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check mirror endpoint and credentials in config.toml"),
		)
		return nil
	}
	s.logger.Debug("artifact mirrored", logging.String("path", path), logging.String("url", url))
	return nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
