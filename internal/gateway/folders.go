package gateway

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"studio/internal/deps"
	"studio/internal/logging"
	"studio/internal/services"
	"studio/internal/workspace"
)

// FolderKind selects which directory an open-folder request targets.
type FolderKind string

const (
	FolderTTS     FolderKind = "tts"
	FolderProject FolderKind = "project"
	FolderImage   FolderKind = "image"
)

const headlessMessage = "容器/无桌面环境，请在宿主机手动打开此路径"

// Opener reveals a directory in the desktop file manager.
type Opener interface {
	Open(path string) error
}

// SystemOpener launches the platform file manager.
type SystemOpener struct{}

func (SystemOpener) Open(path string) error {
	cmd := exec.Command(deps.OpenerCommand(runtime.GOOS), path)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// IsHeadless reports whether this process runs without a desktop.
func IsHeadless() bool {
	return DetectHeadless(os.Getenv, workspace.Exists, runtime.GOOS)
}

// DetectHeadless applies the headless rules to the supplied environment.
func DetectHeadless(getenv func(string) string, exists func(string) bool, goos string) bool {
	if getenv("HEADLESS") == "1" || getenv("DISABLE_FOLDER_OPEN") == "1" {
		return true
	}
	if exists("/.dockerenv") || exists("/run/.containerenv") {
		return true
	}
	if goos == "linux" && getenv("DISPLAY") == "" && getenv("WAYLAND_DISPLAY") == "" {
		return true
	}
	return false
}

// OpenFolder resolves the directory for kind and opens it, or returns the
// path for manual opening when there is no desktop.
func (s *Service) OpenFolder(_ context.Context, kind FolderKind, req FolderRequest) (PathResponse, error) {
	var dir string
	switch kind {
	case FolderTTS:
		project := req.project()
		if project == "" {
			return PathResponse{}, invalid("无效的项目路径")
		}
		dir = workspace.New(project).TTSDir()
		if err := workspace.Ensure(dir); err != nil {
			return PathResponse{}, services.Wrap(services.ErrPersistence, "gateway", "open folder", "", err)
		}
	case FolderProject:
		project := req.project()
		if project == "" {
			return PathResponse{}, invalid("无效的项目路径")
		}
		abs, err := filepath.Abs(project)
		if err != nil {
			return PathResponse{}, invalid("无效的项目路径")
		}
		if !workspace.IsDir(abs) {
			return PathResponse{}, notFound("项目路径不存在")
		}
		dir = abs
	case FolderImage:
		file := strings.TrimSpace(req.FilePath)
		if file == "" {
			return PathResponse{}, invalid("未提供文件路径")
		}
		dir = filepath.Dir(file)
		if !workspace.IsDir(dir) {
			return PathResponse{}, notFound("目录不存在")
		}
	default:
		return PathResponse{}, invalid("unknown folder kind: " + string(kind))
	}

	if s.headless() {
		return PathResponse{Success: true, Message: headlessMessage, Path: dir}, nil
	}
	if err := s.opener.Open(dir); err != nil {
		s.logger.Warn("open folder failed", logging.String("path", dir), logging.Error(err))
		return PathResponse{Success: true, Message: headlessMessage, Path: dir}, nil
	}
	return PathResponse{Success: true, Message: "文件夹已打开", Path: dir}, nil
}

// project returns the project path, accepting it in either field.
func (r FolderRequest) project() string {
	if p := strings.TrimSpace(r.ProjectPath); p != "" {
		return p
	}
	return strings.TrimSpace(r.FilePath)
}
