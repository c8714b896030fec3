package ledger

import (
	"os"
	"testing"
)

func TestShouldSubmit_OncePerPair(t *testing.T) {
	l := New()
	if !l.ShouldSubmit("note.md", "![[a.png]]") {
		t.Fatal("first submission should be allowed")
	}
	if l.ShouldSubmit("note.md", "![[a.png]]") {
		t.Error("second submission of same pair should be denied")
	}
	if !l.ShouldSubmit("note.md", "![[b.png]]") {
		t.Error("different token should be allowed")
	}
	if !l.ShouldSubmit("other.md", "![[a.png]]") {
		t.Error("same token under different document should be allowed")
	}
}

func TestClear_ReopensDocument(t *testing.T) {
	l := New()
	l.ShouldSubmit("note.md", "![[a.png]]")
	l.ShouldSubmit("other.md", "![[x.png]]")

	l.Clear("note.md")

	if !l.ShouldSubmit("note.md", "![[a.png]]") {
		t.Error("token should be allowed again after Clear")
	}
	if l.ShouldSubmit("other.md", "![[x.png]]") {
		t.Error("Clear must not touch other documents")
	}
}

func TestClearAll(t *testing.T) {
	l := New()
	l.ShouldSubmit("a.md", "![[1.png]]")
	l.ShouldSubmit("b.md", "![[2.png]]")
	l.ClearAll()
	if !l.ShouldSubmit("a.md", "![[1.png]]") || !l.ShouldSubmit("b.md", "![[2.png]]") {
		t.Error("all tokens should be allowed again after ClearAll")
	}
}

func TestSnapshotRestore(t *testing.T) {
	l := New()
	l.ShouldSubmit("note.md", "![[a.png]]")
	l.ShouldSubmit("note.md", "![[b.png]]")

	snap := l.Snapshot()

	restored := New()
	restored.Restore(snap)
	if restored.ShouldSubmit("note.md", "![[a.png]]") {
		t.Error("restored token should be denied")
	}
	if restored.ShouldSubmit("note.md", "![[b.png]]") {
		t.Error("restored token should be denied")
	}
	if !restored.ShouldSubmit("note.md", "![[c.png]]") {
		t.Error("unseen token should be allowed")
	}
}

func tempStore(t *testing.T) *Store {
	t.Helper()
	f, err := os.CreateTemp("", "texsnap-ledger-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	s, err := OpenStore(f.Name())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveLoad(t *testing.T) {
	s := tempStore(t)

	want := map[string][]string{
		"note.md":  {"![[a.png]]", "![b](c.png)"},
		"other.md": {"![[x.png]]"},
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || len(got["note.md"]) != 2 || len(got["other.md"]) != 1 {
		t.Errorf("loaded contents = %v", got)
	}

	// Save replaces, never appends.
	if err := s.Save(map[string][]string{"note.md": {"![[a.png]]"}}); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err = s.Load()
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if len(got) != 1 || len(got["note.md"]) != 1 {
		t.Errorf("contents after replace = %v", got)
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	s := tempStore(t)
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("fresh store should be empty, got %v", got)
	}
}
