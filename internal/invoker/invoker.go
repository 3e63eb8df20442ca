package invoker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"studio/internal/gateway"
	"studio/internal/logging"
	"studio/internal/notifications"
	"studio/internal/registry"
	"studio/internal/services"
)

// DefaultTimeout bounds one remote call. It sits above the gateway's 120s
// upstream timeout so the upstream error wins when both would fire.
const DefaultTimeout = 130 * time.Second

var (
	ErrNameRequired      = fmt.Errorf("%w: name is required", services.ErrValidation)
	ErrPromptRequired    = fmt.Errorf("%w: prompt is required", services.ErrValidation)
	ErrReferenceRequired = fmt.Errorf("%w: at least one reference image is required", services.ErrValidation)
	ErrAspectRatio       = fmt.Errorf("%w: unsupported aspect ratio", services.ErrValidation)
)

var aspectRatioPattern = regexp.MustCompile(`^(1:1|2:3|3:2|3:4|4:3|4:5|5:4|9:16|16:9|21:9)$`)

// Gateway is the subset of the gateway the invoker drives.
type Gateway interface {
	GenerateImage(ctx context.Context, req gateway.ImageRequest) (gateway.ImageResponse, error)
	GenerateImageReference(ctx context.Context, req gateway.ImageRequest) (gateway.ImageResponse, error)
	GetImage(ctx context.Context, path string) (gateway.ImagePreview, error)
}

// Registry tracks the task bound to an in-flight call.
type Registry interface {
	NewTask(category registry.Category) registry.Task
	Register(ctx context.Context, task registry.Task) error
	Unregister(ctx context.Context, id string) error
}

// Request describes one generation. ImageType is "character" or
// "background"; Mode is "text" or "reference".
type Request struct {
	ImageType      string   `json:"imageType"`
	Mode           string   `json:"mode"`
	Name           string   `json:"name"`
	Prompt         string   `json:"prompt"`
	AspectRatio    string   `json:"aspectRatio"`
	ReferencePaths []string `json:"referencePaths"`
	ProjectPath    string   `json:"projectPath"`
}

// Result is a successful generation.
type Result struct {
	TaskID         string `json:"task_id"`
	FilePath       string `json:"file_path"`
	FileSize       int64  `json:"file_size"`
	PreviewDataURL string `json:"data_url,omitempty"`
}

// Invoker runs generations one call at a time per request. Concurrency
// across categories is bounded by the registry's control bindings.
type Invoker struct {
	gateway  Gateway
	registry Registry
	notifier notifications.Service
	timeout  time.Duration
	logger   *slog.Logger
}

// Option customizes an Invoker.
type Option func(*Invoker)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Invoker) {
		i.logger = logger
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(i *Invoker) {
		if timeout > 0 {
			i.timeout = timeout
		}
	}
}

// WithNotifier publishes a generation-failed event for every failed call.
func WithNotifier(notifier notifications.Service) Option {
	return func(i *Invoker) {
		if notifier != nil {
			i.notifier = notifier
		}
	}
}

// New constructs an Invoker.
func New(gw Gateway, reg Registry, opts ...Option) *Invoker {
	inv := &Invoker{
		gateway:  gw,
		registry: reg,
		notifier: notifications.NewService(nil),
		timeout:  DefaultTimeout,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	inv.logger = logging.NewComponentLogger(inv.logger, "invoker")
	return inv
}

// ComposePrompt joins a base prompt with the extra instructions typed for a
// reference generation.
func ComposePrompt(base, added string) string {
	base = strings.TrimSpace(base)
	added = strings.TrimSpace(added)
	switch {
	case added == "":
		return base
	case base == "":
		return added
	default:
		return base + "\n" + added
	}
}

// Validate checks req without touching the registry or the network and
// returns its category.
func Validate(req Request) (registry.Category, error) {
	category, err := registry.CategoryFor(req.ImageType, req.Mode)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "invoker", "validate", err.Error(), nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return "", ErrNameRequired
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrPromptRequired
	}
	if category.IsReference() && len(nonBlank(req.ReferencePaths)) == 0 {
		return "", ErrReferenceRequired
	}
	if ratio := strings.TrimSpace(req.AspectRatio); ratio != "" && !aspectRatioPattern.MatchString(ratio) {
		return "", fmt.Errorf("%w: %q", ErrAspectRatio, ratio)
	}
	return category, nil
}

// Invoke performs one generation. Validation failures return before a task
// exists. Once registered, the task is unregistered on every path.
func (i *Invoker) Invoke(ctx context.Context, req Request) (Result, error) {
	category, err := Validate(req)
	if err != nil {
		return Result{}, err
	}

	task := i.registry.NewTask(category)
	if err := i.registry.Register(ctx, task); err != nil {
		return Result{}, err
	}
	ctx = services.WithTaskID(ctx, task.ID)
	if project := strings.TrimSpace(req.ProjectPath); project != "" {
		ctx = services.WithProject(ctx, project)
	}
	logger := logging.WithContext(ctx, i.logger).With(logging.String(logging.FieldCategory, string(category)))
	defer func() {
		if uerr := i.registry.Unregister(context.WithoutCancel(ctx), task.ID); uerr != nil {
			logger.Warn("task unregister failed", logging.Error(uerr))
		}
	}()

	started := time.Now()
	resp, err := i.call(ctx, category, req)
	if err == nil {
		err = interpret(resp)
	}
	if err != nil {
		logging.WarnWithContext(logger, "generation failed", "generation_failed",
			logging.Error(err),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)
		i.publishFailure(ctx, category, req.Name, err)
		return Result{}, err
	}

	result := Result{TaskID: task.ID, FilePath: resp.FilePath, FileSize: resp.FileSize}
	preview, perr := i.gateway.GetImage(ctx, resp.FilePath)
	switch {
	case perr != nil:
		logger.Warn("preview unavailable", logging.String("file", resp.FilePath), logging.Error(perr))
	case !preview.Success:
		logger.Warn("preview unavailable", logging.String("file", resp.FilePath), logging.String("reason", preview.Message))
	default:
		result.PreviewDataURL = preview.DataURL
	}

	logger.Info("generation completed",
		logging.String("file", resp.FilePath),
		logging.Int64("bytes", resp.FileSize),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (i *Invoker) call(ctx context.Context, category registry.Category, req Request) (gateway.ImageResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	gwReq := gateway.ImageRequest{
		ProjectPath: req.ProjectPath,
		ImageType:   category.ImageType(),
		Prompt:      req.Prompt,
		AspectRatio: strings.TrimSpace(req.AspectRatio),
	}
	if category.ImageType() == registry.ImageTypeCharacter {
		gwReq.CharacterName = strings.TrimSpace(req.Name)
	} else {
		gwReq.BackgroundName = strings.TrimSpace(req.Name)
	}

	var (
		resp gateway.ImageResponse
		err  error
	)
	if category.IsReference() {
		gwReq.ImagePaths = nonBlank(req.ReferencePaths)
		resp, err = i.gateway.GenerateImageReference(callCtx, gwReq)
	} else {
		resp, err = i.gateway.GenerateImage(callCtx, gwReq)
	}
	if err == nil {
		return resp, nil
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && services.Classify(err) != services.KindTimeout {
		return resp, services.Wrap(services.ErrTimeout, "invoker", "generate", fmt.Sprintf("no result after %s", i.timeout), err)
	}
	if services.Classify(err) == services.KindUnknown {
		return resp, services.Wrap(services.ErrTransport, "invoker", "generate", "", err)
	}
	return resp, err
}

func interpret(resp gateway.ImageResponse) error {
	if !resp.Success {
		message := strings.TrimSpace(resp.Message)
		if message == "" {
			message = "generation reported failure"
		}
		return services.NewFailure(services.ErrSemantic, message)
	}
	if strings.TrimSpace(resp.FilePath) == "" {
		return services.NewFailure(services.ErrSemantic, "response missing artifact")
	}
	return nil
}

func (i *Invoker) publishFailure(ctx context.Context, category registry.Category, name string, err error) {
	payload := notifications.Payload{
		"label": category.Label(),
		"name":  strings.TrimSpace(name),
		"error": services.Reason(err),
	}
	if perr := i.notifier.Publish(context.WithoutCancel(ctx), notifications.EventGenerationFailed, payload); perr != nil {
		i.logger.Debug("failure notification not sent", logging.Error(perr))
	}
}

func hintFor(err error) string {
	switch services.Classify(err) {
	case services.KindTimeout:
		return "the upstream did not answer in time; retry or raise invoker.timeout_seconds"
	case services.KindTransport:
		return "check network access and the gemini api key"
	case services.KindSemantic:
		return "the upstream answered without an image; adjust the prompt and retry"
	case services.KindConfiguration:
		return "check config.toml"
	default:
		return ""
	}
}

func nonBlank(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
