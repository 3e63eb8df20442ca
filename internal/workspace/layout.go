package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"studio/internal/textutil"
)

// Directory names inside a project root.
const (
	TTSDir         = "tts"
	TTSTextDir     = "text"
	ImageDir       = "image"
	CharacterDir   = "character"
	BackgroundDir  = "background"
	FreeCreateDir  = "free-create"
	CopywritingDir = "文案"
	DraftDir       = ".draft"
	DraftFile      = "workspace-draft.json"
)

// Layout resolves artifact locations under one project root.
type Layout struct {
	Root string
}

// New returns a Layout for root after cleaning it.
func New(root string) Layout {
	return Layout{Root: filepath.Clean(strings.TrimSpace(root))}
}

func (l Layout) TTSDir() string         { return filepath.Join(l.Root, TTSDir) }
func (l Layout) TTSTextDir() string     { return filepath.Join(l.Root, TTSDir, TTSTextDir) }
func (l Layout) CharacterDir() string   { return filepath.Join(l.Root, ImageDir, CharacterDir) }
func (l Layout) BackgroundDir() string  { return filepath.Join(l.Root, ImageDir, BackgroundDir) }
func (l Layout) FreeCreateDir() string  { return filepath.Join(l.Root, FreeCreateDir) }
func (l Layout) CopywritingDir() string { return filepath.Join(l.Root, CopywritingDir) }
func (l Layout) DraftPath() string      { return filepath.Join(l.Root, DraftDir, DraftFile) }

// ImageDir returns the output directory for an image type ("character" or
// "background").
func (l Layout) ImageDir(imageType string) (string, error) {
	switch imageType {
	case CharacterDir:
		return l.CharacterDir(), nil
	case BackgroundDir:
		return l.BackgroundDir(), nil
	default:
		return "", fmt.Errorf("unknown image type %q", imageType)
	}
}

// Ensure creates dir and its parents.
func Ensure(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// NextNumber returns one more than the largest N among files named N.ext in
// dir, or 1 when there are none. A missing directory counts as empty.
func NextNumber(dir, ext string) (int, error) {
	ext = strings.TrimPrefix(ext, ".")
	pattern := regexp.MustCompile(`^(\d+)\.` + regexp.QuoteMeta(ext) + `$`)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, fmt.Errorf("list %s: %w", dir, err)
	}
	highest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// ImageFileName builds the output file name for a named image. An empty
// name after sanitizing falls back to the next free number in dir.
func ImageFileName(dir, name, ext string) (string, error) {
	ext = strings.TrimPrefix(ext, ".")
	if clean := textutil.SanitizeFileName(name); clean != "" {
		return clean + "." + ext, nil
	}
	n, err := NextNumber(dir, ext)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%s", n, ext), nil
}

// FreeCreateName returns the default file name for a free-create image.
func FreeCreateName(now time.Time) string {
	return fmt.Sprintf("free-create-%d.png", now.UnixMilli())
}

// MimeForPath maps an image file extension to its MIME type. Unknown
// extensions are treated as JPEG.
func MimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".wav":
		return "audio/wav"
	default:
		return "image/jpeg"
	}
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path names an existing directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
