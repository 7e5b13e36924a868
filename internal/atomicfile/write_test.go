package atomicfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := Write(path, []byte("version = 1\n"), 0o644); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := Write(path, []byte("version = 2\n"), 0o644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "version = 2\n" {
		t.Fatalf("content = %q", got)
	}
	assertNoTemps(t, filepath.Dir(path))
}

func TestWrite_CreatesParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".richcord", "afk.pid")

	if err := Write(path, []byte("42"), 0o600); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm()&0o600 == 0 {
		t.Errorf("permissions = %o, expected at least owner rw", info.Mode().Perm())
	}
}

func TestWrite_FailureLeavesNoTemp(t *testing.T) {
	root := t.TempDir()
	// A regular file where the parent directory should be.
	blocker := filepath.Join(root, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Write(filepath.Join(blocker, "file.txt"), []byte("x"), 0o644); err == nil {
		t.Fatal("expected error")
	}
	assertNoTemps(t, root)
}

func assertNoTemps(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if ok, _ := filepath.Match("*.tmp.*", e.Name()); ok {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
