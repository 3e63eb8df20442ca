package draft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"studio/internal/logging"
	"studio/internal/notifications"
	"studio/internal/services"
)

// ErrNoDraft reports that the project has no saved draft.
var ErrNoDraft = services.NewFailure(services.ErrNotFound, "没有找到保存的草稿")

// ErrNotConfirmed is returned by Clear when the user declines.
var ErrNotConfirmed = errors.New("draft clear not confirmed")

// Store persists one draft per project. LoadDraft returns ErrNoDraft when the
// project has none.
type Store interface {
	SaveDraft(ctx context.Context, projectPath string, snap Snapshot) error
	LoadDraft(ctx context.Context, projectPath string) (Snapshot, error)
	ClearDraft(ctx context.Context, projectPath string) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f != nil && f(prompt) }

const clearPrompt = "确定要清除草稿吗？此操作不可撤销。"

// Manager saves and restores workspace snapshots through a Store.
type Manager struct {
	store  Store
	banner notifications.Banner
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a Manager. A nil banner discards status messages.
func NewManager(store Store, banner notifications.Banner, opts ...Option) *Manager {
	if banner == nil {
		banner = notifications.DiscardBanner
	}
	m := &Manager{
		store:  store,
		banner: banner,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.NewComponentLogger(m.logger, "draft")
	return m
}

// Persist overwrites the project's draft with snap.
func (m *Manager) Persist(ctx context.Context, projectPath string, snap Snapshot) error {
	projectPath = strings.TrimSpace(projectPath)
	if projectPath == "" {
		return services.NewFailure(services.ErrValidation, "请先选择项目")
	}
	if err := m.store.SaveDraft(ctx, projectPath, snap); err != nil {
		return err
	}
	m.logger.Debug("draft persisted",
		logging.String(logging.FieldProject, projectPath),
		logging.Int64("timestamp", snap.Timestamp),
	)
	return nil
}

// SaveNow captures form and persists it. Automatic saves never surface
// failures to the user; they are logged and swallowed.
func (m *Manager) SaveNow(ctx context.Context, projectPath string, form Form, automatic bool) error {
	snap := Capture(form, m.now())
	if err := m.Persist(ctx, projectPath, snap); err != nil {
		if automatic {
			logging.WarnWithContext(m.logger, "automatic draft save failed", "draft_save_failed",
				logging.String(logging.FieldProject, projectPath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that the project directory is writable"),
			)
			return nil
		}
		m.banner.Show(notifications.SeverityError, fmt.Sprintf("保存草稿失败: %s", services.Reason(err)))
		return err
	}
	if !automatic {
		m.banner.Show(notifications.SeveritySuccess, "草稿已保存")
	}
	return nil
}

// RestoreLatest loads the project's draft and applies it to form. It reports
// whether a draft was applied. With suppressOnMiss set the call is treated as
// automatic: a missing draft is silent and store errors are only logged.
func (m *Manager) RestoreLatest(ctx context.Context, projectPath string, form Form, suppressOnMiss bool) (bool, error) {
	snap, err := m.store.LoadDraft(ctx, projectPath)
	if err != nil {
		if errors.Is(err, ErrNoDraft) {
			if suppressOnMiss {
				return false, nil
			}
			m.banner.Show(notifications.SeverityInfo, "没有找到保存的草稿")
			return false, ErrNoDraft
		}
		if suppressOnMiss {
			logging.WarnWithContext(m.logger, "automatic draft restore failed", "draft_restore_failed",
				logging.String(logging.FieldProject, projectPath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete .draft/workspace-draft.json if it is corrupt"),
			)
			return false, nil
		}
		m.banner.Show(notifications.SeverityError, fmt.Sprintf("恢复草稿失败: %s", services.Reason(err)))
		return false, err
	}

	Apply(snap, form)
	m.logger.Info("draft restored",
		logging.String(logging.FieldProject, projectPath),
		logging.Int64("timestamp", snap.Timestamp),
	)
	if !suppressOnMiss {
		m.banner.Show(notifications.SeveritySuccess, "草稿已恢复")
	}
	return true, nil
}

// Clear removes the project's draft after confirm agrees. Declining leaves
// the store untouched.
func (m *Manager) Clear(ctx context.Context, projectPath string, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(clearPrompt) {
		return ErrNotConfirmed
	}
	if err := m.store.ClearDraft(ctx, projectPath); err != nil {
		m.banner.Show(notifications.SeverityError, fmt.Sprintf("清除草稿失败: %s", services.Reason(err)))
		return err
	}
	m.banner.Show(notifications.SeveritySuccess, "草稿已清除")
	return nil
}
