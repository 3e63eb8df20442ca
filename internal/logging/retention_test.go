package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"studio/internal/logging"
)

func TestCleanupOldLogsRemovesExpiredMatches(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "studiod-old.log")
	fresh := filepath.Join(dir, "studiod-new.log")
	other := filepath.Join(dir, "notes.txt")
	current := filepath.Join(dir, "studiod-current.log")
	for _, path := range []string{old, fresh, other, current} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{old, other, current} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 5, logging.RetentionTarget{Dir: dir, Pattern: "studiod-*.log", Exclude: []string{current}})
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected expired log to be removed, err=%v", err)
	}
	for _, path := range []string{fresh, other, current} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "studiod-old.log")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().AddDate(0, 0, -100)
	_ = os.Chtimes(path, past, past)

	logging.CleanupOldLogs(nil, 0, logging.RetentionTarget{Dir: dir})
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("retention 0 must not delete: %v", err)
	}
}

func TestCleanupOldLogsKeepsPointerSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "studiod-current.log")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	pointer := filepath.Join(dir, "studiod.log")
	if err := os.Symlink(target, pointer); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	past := time.Now().AddDate(0, 0, -30)
	_ = os.Chtimes(target, past, past)

	logging.CleanupOldLogs(nil, 1, logging.RetentionTarget{Dir: dir, Pattern: "studiod*.log", Exclude: []string{target}})

	if _, err := os.Lstat(pointer); err != nil {
		t.Fatalf("pointer removed: %v", err)
	}
}
