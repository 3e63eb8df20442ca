package gateway

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"studio/internal/logging"
	"studio/internal/services"
	"studio/internal/services/summarizer"
	"studio/internal/workspace"
)

// Copywriting file names inside the project's copywriting directory.
const (
	CopywritingTTSFile   = "TTS文案.json"
	CopywritingImageFile = "图像文案.json"
	CopywritingFullFile  = "完整数据.json"
)

// SaveCopywriting writes the narration half, the image half, and both
// together as indented JSON files.
func (s *Service) SaveCopywriting(ctx context.Context, req CopywritingSaveRequest) (PathResponse, error) {
	project := strings.TrimSpace(req.ProjectPath)
	if project == "" {
		return PathResponse{}, invalid("缺少项目路径")
	}
	ttsData := normalizeRaw(req.TTSData)
	imageData := normalizeRaw(req.ImageData)
	if !json.Valid(ttsData) || !json.Valid(imageData) {
		return PathResponse{}, invalid("文案数据格式不正确")
	}

	full := summarizer.Result{TTS: ttsData, Image: imageData}
	files := []struct {
		name  string
		value any
	}{
		{CopywritingTTSFile, json.RawMessage(ttsData)},
		{CopywritingImageFile, json.RawMessage(imageData)},
		{CopywritingFullFile, full},
	}

	dir := workspace.New(project).CopywritingDir()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range files {
		data, err := json.MarshalIndent(f.value, "", "  ")
		if err != nil {
			return PathResponse{}, services.Wrap(services.ErrPersistence, "gateway", "save copywriting", f.name, err)
		}
		if err := workspace.WriteFileAtomic(filepath.Join(dir, f.name), data); err != nil {
			return PathResponse{}, services.Wrap(services.ErrPersistence, "gateway", "save copywriting", f.name, err)
		}
	}
	s.logger.Info("copywriting saved", logging.String(logging.FieldProject, project), logging.String("dir", dir))
	return PathResponse{Success: true, Message: "文案保存成功", Path: dir}, nil
}

// GenerateCopywriting asks the summarizer for copywriting from videoURL.
func (s *Service) GenerateCopywriting(ctx context.Context, videoURL string) (summarizer.Result, error) {
	if s.summarizer == nil {
		return summarizer.Result{}, services.Wrap(services.ErrConfiguration, "gateway", "generate copywriting", "summarizer not configured", nil)
	}
	return s.summarizer.Summarize(ctx, videoURL)
}

func normalizeRaw(raw json.RawMessage) json.RawMessage {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
