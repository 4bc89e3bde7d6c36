package registry

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestLoadDir_FiltersAndSortsJSON(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"chat_002.json",
		"Rust_borrow_checker.json",
		"chat_001.JSON", // case-insensitive
		"notes.txt",
		".tmp-chat_003.json-123", // atomic write leftovers are skipped
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write temp file: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	convs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(convs) != 3 {
		t.Fatalf("expected 3 conversations, got %+v", convs)
	}
	wantIDs := []string{"Rust_borrow_checker", "chat_001", "chat_002"}
	for i, c := range convs {
		if c.ID != wantIDs[i] {
			t.Fatalf("order: got %s at %d, want %s", c.ID, i, wantIDs[i])
		}
		if !filepath.IsAbs(c.Path) {
			t.Fatalf("path not absolute: %s", c.Path)
		}
		if c.ModTime.IsZero() || time.Since(c.ModTime) > time.Hour {
			t.Fatalf("unexpected mod time: %v", c.ModTime)
		}
	}
	if convs[0].Name != "Rust borrow checker" {
		t.Fatalf("display name: %q", convs[0].Name)
	}
}

func TestLoadDir_MissingDirIsEmpty(t *testing.T) {
	convs, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if convs == nil || len(convs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", convs)
	}
}

func TestLoadDir_ExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir on this platform: %v", err)
	}
	hTmp, err := os.MkdirTemp(home, "ollamakit-registry-*")
	if err != nil {
		t.Skipf("cannot create temp under home: %v", err)
	}
	defer os.RemoveAll(hTmp)
	if err := os.WriteFile(filepath.Join(hTmp, "x.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var tildePath string
	if runtime.GOOS == "windows" {
		tildePath = filepath.Join("~", filepath.Base(hTmp))
	} else {
		tildePath = "~/" + filepath.Base(hTmp)
	}
	convs, err := LoadDir(tildePath)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(convs) != 1 || convs[0].ID != "x" {
		t.Fatalf("unexpected conversations: %+v", convs)
	}
}

func TestFileStemRoundTrip(t *testing.T) {
	for _, id := range []string{"chat_001", "Rust_borrow_checker", "plain"} {
		if got := FileStem(DisplayName(id)); got != id {
			t.Fatalf("round trip %q -> %q", id, got)
		}
	}
	if got := FileStem("  spaced name "); got != "spaced_name" {
		t.Fatalf("trim: %q", got)
	}
}
