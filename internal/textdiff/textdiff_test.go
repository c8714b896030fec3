package textdiff

import (
	"strings"
	"testing"

	"github.com/mattvik/texsnap/internal/scan"
)

func TestInserted_Identity(t *testing.T) {
	for _, text := range []string{"", "a", "# Note\nBody with ![[x.png]]\n", strings.Repeat("line\n", 5000)} {
		if got := Inserted(text, text); got != "" {
			t.Errorf("Inserted(t, t) = %q, want empty", got)
		}
	}
}

func TestInserted_PureAppend(t *testing.T) {
	oldText := "# Note\n"
	newText := "# Note\n![[shot.png]]"
	if got := Inserted(oldText, newText); got != "![[shot.png]]" {
		t.Errorf("got %q, want the pasted token", got)
	}
}

func TestInserted_MiddleInsertion(t *testing.T) {
	oldText := "before after"
	newText := "before MIDDLE after"
	got := Inserted(oldText, newText)
	if !strings.Contains(got, "MIDDLE") {
		t.Errorf("got %q, want to contain MIDDLE", got)
	}
}

func TestInserted_DeletionOnly(t *testing.T) {
	if got := Inserted("hello world", "hello"); got != "" {
		t.Errorf("deletion produced inserted text %q", got)
	}
}

func TestInserted_MultipleRunsInOrder(t *testing.T) {
	oldText := "aaa bbb ccc"
	newText := "aaa ONE bbb TWO ccc"
	got := Inserted(oldText, newText)
	one := strings.Index(got, "ONE")
	two := strings.Index(got, "TWO")
	if one < 0 || two < 0 || one > two {
		t.Errorf("runs out of order or missing: %q", got)
	}
}

// Every reference found in the insertion delta must also be found by scanning
// the new text in full: the delta is a cheap pre-filter, never a source of
// references the document does not contain. Exercised over a mixed edit
// (deletion + two insertions, one of them a reference).
func TestInserted_DeltaReferencesAppearInFullScan(t *testing.T) {
	oldText := "# Notes\nobsolete paragraph\n![[kept.png]]\ntrailer\n"
	newText := "# Notes\n![[pasted.png]] fresh text\n![[kept.png]]\nedited trailer\n"

	delta := Inserted(oldText, newText)

	full := make(map[string]struct{})
	for _, ref := range scan.FindAll(newText) {
		full[ref.RawToken] = struct{}{}
	}
	deltaRefs := scan.FindAll(delta)
	if len(deltaRefs) == 0 {
		t.Fatalf("pasted reference missing from delta %q", delta)
	}
	for _, ref := range deltaRefs {
		if _, ok := full[ref.RawToken]; !ok {
			t.Errorf("delta yielded %q which a full scan of the new text does not", ref.RawToken)
		}
	}
}

// A token pasted into a large document must survive the delta intact so the
// scanner can pick it up from the insertion runs alone.
func TestInserted_TokenSurvivesInLargeDocument(t *testing.T) {
	base := strings.Repeat("The quick brown fox jumps over the lazy dog.\n", 2000)
	newText := base[:len(base)/2] + "![[formula.png]]\n" + base[len(base)/2:]
	got := Inserted(base, newText)
	if !strings.Contains(got, "![[formula.png]]") {
		t.Errorf("pasted token not present in delta: %q", got)
	}
}
