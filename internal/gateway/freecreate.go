package gateway

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"strings"

	"studio/internal/fileutil"
	"studio/internal/logging"
	"studio/internal/services"
	"studio/internal/services/gemini"
	"studio/internal/store"
	"studio/internal/workspace"
)

// FreeCreate renders an unconstrained image, saves it as a timestamped PNG,
// and records it in the history.
func (s *Service) FreeCreate(ctx context.Context, req FreeCreateRequest) (FreeCreateResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return FreeCreateResponse{}, invalid("请提供提示词")
	}
	project := strings.TrimSpace(req.ProjectPath)
	saveDir := strings.TrimSpace(req.SaveFolder)
	if saveDir == "" {
		if project == "" {
			return FreeCreateResponse{}, invalid("缺少项目路径")
		}
		saveDir = workspace.New(project).FreeCreateDir()
	}

	refs := make([]gemini.Reference, 0, len(req.ReferenceImages))
	for _, ref := range req.ReferenceImages {
		data, err := decodeBase64Image(ref.Data)
		if err != nil {
			return FreeCreateResponse{}, invalid("参考图片数据无效")
		}
		mime := strings.TrimSpace(ref.MimeType)
		if mime == "" {
			mime = "image/png"
		}
		refs = append(refs, gemini.Reference{MimeType: mime, Data: data})
	}
	if s.images == nil {
		return FreeCreateResponse{}, services.Wrap(services.ErrConfiguration, "gateway", "free create", "image client not configured", nil)
	}

	img, err := s.images.Generate(ctx, gemini.Request{
		Prompt:      prompt,
		AspectRatio: req.AspectRatio,
		References:  refs,
	})
	if err != nil {
		return FreeCreateResponse{}, err
	}

	root := project
	if root == "" {
		root = saveDir
	}
	s.mu.Lock()
	if err := workspace.Ensure(saveDir); err != nil {
		s.mu.Unlock()
		return FreeCreateResponse{}, services.Wrap(services.ErrPersistence, "gateway", "free create", "", err)
	}
	path := filepath.Join(saveDir, workspace.FreeCreateName(s.now()))
	err = s.writeArtifact(ctx, root, path, img.Data)
	s.mu.Unlock()
	if err != nil {
		return FreeCreateResponse{}, services.Wrap(services.ErrPersistence, "gateway", "write image", "", err)
	}

	if s.history != nil {
		_, herr := s.history.AddHistory(ctx, store.HistoryEntry{
			ImagePath:   path,
			Prompt:      prompt,
			AspectRatio: req.AspectRatio,
			ProjectPath: project,
			CreatedAt:   s.now(),
		})
		if herr != nil {
			s.logger.Warn("free-create history not recorded", logging.String("path", path), logging.Error(herr))
		}
	}

	s.logger.Info("free-create image saved",
		logging.String("file", path),
		logging.Int("references", len(refs)),
	)
	return FreeCreateResponse{
		Success:   true,
		ImagePath: path,
		ImageData: base64.StdEncoding.EncodeToString(img.Data),
		Message:   "图片生成成功",
	}, nil
}

// SaveFreeCreate copies a generated image into another folder.
func (s *Service) SaveFreeCreate(_ context.Context, req SaveFreeCreateRequest) (SaveFreeCreateResponse, error) {
	src := strings.TrimSpace(req.ImagePath)
	target := strings.TrimSpace(req.TargetFolder)
	if src == "" || target == "" {
		return SaveFreeCreateResponse{}, invalid("参数不完整")
	}
	if !workspace.Exists(src) {
		return SaveFreeCreateResponse{}, notFound("源文件不存在")
	}
	dst, err := fileutil.CopyInto(src, target)
	if err != nil {
		return SaveFreeCreateResponse{}, services.Wrap(services.ErrPersistence, "gateway", "save free create", "", err)
	}
	return SaveFreeCreateResponse{Success: true, TargetPath: dst, Message: "图片已保存"}, nil
}

// History lists recent free-create images, newest first.
func (s *Service) History(ctx context.Context) ([]store.HistoryEntry, error) {
	if s.history == nil {
		return []store.HistoryEntry{}, nil
	}
	return s.history.ListHistory(ctx)
}

func decodeBase64Image(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if idx := strings.Index(value, ";base64,"); idx >= 0 && strings.HasPrefix(value, "data:") {
		value = value[idx+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(value)
}
