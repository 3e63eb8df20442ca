package gateway

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"studio/internal/imageconv"
	"studio/internal/logging"
	"studio/internal/services"
	"studio/internal/services/gemini"
	"studio/internal/workspace"
)

// GenerateImage renders a character or background image from a prompt.
func (s *Service) GenerateImage(ctx context.Context, req ImageRequest) (ImageResponse, error) {
	return s.generateImage(ctx, req, nil)
}

// GenerateImageReference renders an image from a prompt plus reference
// images. Blank and missing paths are dropped; if none remain the request is
// rejected.
func (s *Service) GenerateImageReference(ctx context.Context, req ImageRequest) (ImageResponse, error) {
	refs := make([]gemini.Reference, 0, len(req.ImagePaths))
	for _, p := range req.ImagePaths {
		p = strings.TrimSpace(p)
		if p == "" || !workspace.Exists(p) {
			continue
		}
		ref, err := gemini.ReferenceFromFile(p)
		if err != nil {
			s.logger.Warn("reference image unreadable", logging.String("path", p), logging.Error(err))
			continue
		}
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return ImageResponse{}, invalid("没有找到有效的参考图片文件")
	}
	return s.generateImage(ctx, req, refs)
}

func (s *Service) generateImage(ctx context.Context, req ImageRequest, refs []gemini.Reference) (ImageResponse, error) {
	project := strings.TrimSpace(req.ProjectPath)
	if project == "" {
		return ImageResponse{}, invalid("缺少项目路径")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return ImageResponse{}, invalid("请提供提示词")
	}
	layout := workspace.New(project)
	dir, err := layout.ImageDir(strings.TrimSpace(req.ImageType))
	if err != nil {
		return ImageResponse{}, invalid("无效的imageType")
	}
	if s.images == nil {
		return ImageResponse{}, services.Wrap(services.ErrConfiguration, "gateway", "generate image", "image client not configured", nil)
	}

	img, err := s.images.Generate(ctx, gemini.Request{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		References:  refs,
	})
	if err != nil {
		return ImageResponse{}, err
	}

	data, ext, err := imageconv.Encode(img.Data, s.cfg.Images.OutputFormat, s.cfg.Images.WebPQuality)
	if err != nil {
		s.logger.Warn("image re-encode failed; keeping upstream bytes",
			logging.String("format", s.cfg.Images.OutputFormat),
			logging.Error(err),
		)
		data, ext = img.Data, imageconv.FormatPNG
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := workspace.Ensure(dir); err != nil {
		return ImageResponse{}, services.Wrap(services.ErrPersistence, "gateway", "generate image", "", err)
	}
	filename, err := workspace.ImageFileName(dir, req.Name(), ext)
	if err != nil {
		return ImageResponse{}, services.Wrap(services.ErrPersistence, "gateway", "generate image", "", err)
	}
	path := filepath.Join(dir, filename)
	if err := s.writeArtifact(ctx, layout.Root, path, data); err != nil {
		return ImageResponse{}, services.Wrap(services.ErrPersistence, "gateway", "write image", "", err)
	}

	s.logger.Info("image saved",
		logging.String(logging.FieldProject, project),
		logging.String("file", path),
		logging.Int("references", len(refs)),
	)
	return ImageResponse{
		Success:  true,
		FilePath: path,
		FileSize: fileSize(path),
		Message:  "图片生成成功: " + path,
	}, nil
}

// GetImage returns the file at path as a data URL.
func (s *Service) GetImage(_ context.Context, path string) (ImagePreview, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ImagePreview{}, notFound("文件不存在")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ImagePreview{}, notFound("文件不存在")
		}
		return ImagePreview{}, services.Wrap(services.ErrPersistence, "gateway", "get image", "", err)
	}
	return ImagePreview{Success: true, DataURL: DataURL(path, data)}, nil
}

// DataURL encodes data as a data URL typed from path's extension.
func DataURL(path string, data []byte) string {
	return "data:" + workspace.MimeForPath(path) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
