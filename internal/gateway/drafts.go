package gateway

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"studio/internal/draft"
	"studio/internal/services"
	"studio/internal/workspace"
)

// SaveDraft overwrites the project's draft file.
func (s *Service) SaveDraft(_ context.Context, projectPath string, snap draft.Snapshot) error {
	projectPath = strings.TrimSpace(projectPath)
	if projectPath == "" {
		return invalid("缺少项目路径")
	}
	data, err := draft.Encode(snap)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "gateway", "save draft", "", err)
	}
	if err := workspace.WriteFileAtomic(workspace.New(projectPath).DraftPath(), data); err != nil {
		return services.Wrap(services.ErrPersistence, "gateway", "save draft", "", err)
	}
	return nil
}

// LoadDraft reads the project's draft file. A missing file is draft.ErrNoDraft.
func (s *Service) LoadDraft(_ context.Context, projectPath string) (draft.Snapshot, error) {
	projectPath = strings.TrimSpace(projectPath)
	if projectPath == "" {
		return draft.Snapshot{}, invalid("缺少项目路径")
	}
	data, err := os.ReadFile(workspace.New(projectPath).DraftPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return draft.Snapshot{}, draft.ErrNoDraft
		}
		return draft.Snapshot{}, services.Wrap(services.ErrPersistence, "gateway", "load draft", "", err)
	}
	return draft.Decode(data)
}

// ClearDraft removes the project's draft file. Clearing a missing draft
// succeeds.
func (s *Service) ClearDraft(_ context.Context, projectPath string) error {
	projectPath = strings.TrimSpace(projectPath)
	if projectPath == "" {
		return invalid("缺少项目路径")
	}
	err := os.Remove(workspace.New(projectPath).DraftPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrPersistence, "gateway", "clear draft", "", err)
	}
	return nil
}
