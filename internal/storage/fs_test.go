package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempVault(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestList_FiltersByExtension(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("note.md", []byte("a"))
	_ = s.Write("sub/other.md", []byte("b"))
	_ = s.Write("attachments/shot.PNG", []byte{0x89})
	_ = s.Write("ignore.txt", []byte("c"))

	mds, err := s.List("", ".md")
	if err != nil {
		t.Fatalf("List md: %v", err)
	}
	if len(mds) != 2 {
		t.Errorf("md count = %d, want 2: %v", len(mds), mds)
	}

	imgs, err := s.List("", ".png", ".jpg")
	if err != nil {
		t.Fatalf("List img: %v", err)
	}
	if len(imgs) != 1 || imgs[0].Path != "attachments/shot.PNG" {
		t.Errorf("imgs = %v", imgs)
	}

	all, err := s.List("")
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("all count = %d, want 4", len(all))
	}
}

func TestStat(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("note.md", []byte("hello"))
	info, err := s.Stat("note.md")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size != 5 {
		t.Errorf("size = %d, want 5", info.Size)
	}
	if _, err := s.Stat("missing.md"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSafePath_RejectsTraversal(t *testing.T) {
	s := tempVault(t)
	if _, err := s.Read("../outside.md"); err == nil {
		t.Error("expected traversal rejection")
	}
	if _, err := s.Read("a/../../outside.md"); err == nil {
		t.Error("expected nested traversal rejection")
	}
	abs := filepath.Join(string(os.PathSeparator), "etc", "passwd")
	if _, err := s.Read(abs); err == nil {
		t.Error("expected absolute path rejection")
	}
}

func TestWrite_Overwrites(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("note.md", []byte("one"))
	if err := s.Write("note.md", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ := s.Read("note.md")
	if string(got) != "two" {
		t.Errorf("content = %q, want two", got)
	}
}
