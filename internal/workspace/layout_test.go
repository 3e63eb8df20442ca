package workspace_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"studio/internal/workspace"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNextNumber(t *testing.T) {
	dir := t.TempDir()
	n, err := workspace.NextNumber(filepath.Join(dir, "missing"), "wav")
	if err != nil || n != 1 {
		t.Fatalf("missing dir = %d, %v", n, err)
	}

	for _, name := range []string{"1.wav", "7.wav", "3.wav", "12.txt", "x9.wav", "10.wav.bak"} {
		touch(t, filepath.Join(dir, name))
	}
	n, err = workspace.NextNumber(dir, ".wav")
	if err != nil {
		t.Fatalf("NextNumber: %v", err)
	}
	if n != 8 {
		t.Fatalf("NextNumber = %d, want 8", n)
	}
}

func TestLayoutPaths(t *testing.T) {
	l := workspace.New("/projects/demo/")
	if got := l.TTSTextDir(); got != "/projects/demo/tts/text" {
		t.Fatalf("TTSTextDir = %q", got)
	}
	if got := l.DraftPath(); got != "/projects/demo/.draft/workspace-draft.json" {
		t.Fatalf("DraftPath = %q", got)
	}
	if got := l.CopywritingDir(); got != "/projects/demo/文案" {
		t.Fatalf("CopywritingDir = %q", got)
	}
	if _, err := l.ImageDir("prop"); err == nil {
		t.Fatal("expected error for unknown image type")
	}
	dir, err := l.ImageDir("background")
	if err != nil || dir != "/projects/demo/image/background" {
		t.Fatalf("ImageDir = %q, %v", dir, err)
	}
}

func TestImageFileNameSanitizesAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	name, err := workspace.ImageFileName(dir, "../evil", "png")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(name, "/") {
		t.Fatalf("name escaped directory: %q", name)
	}

	touch(t, filepath.Join(dir, "4.png"))
	name, err = workspace.ImageFileName(dir, "  ", "png")
	if err != nil || name != "5.png" {
		t.Fatalf("fallback name = %q, %v", name, err)
	}
}

func TestMimeForPath(t *testing.T) {
	cases := map[string]string{
		"a.PNG":  "image/png",
		"a.gif":  "image/gif",
		"a.webp": "image/webp",
		"a.jpg":  "image/jpeg",
		"a":      "image/jpeg",
	}
	for path, want := range cases {
		if got := workspace.MimeForPath(path); got != want {
			t.Errorf("MimeForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestFreeCreateName(t *testing.T) {
	if got := workspace.FreeCreateName(time.UnixMilli(1234)); got != "free-create-1234.png" {
		t.Fatalf("FreeCreateName = %q", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	if err := workspace.WriteFileAtomic(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if err := workspace.WriteFileAtomic(path, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != `{"a":2}` {
		t.Fatalf("content = %q, %v", data, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}
