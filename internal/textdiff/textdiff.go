// Package textdiff answers "what text was added" between two document versions.
package textdiff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Inserted returns the concatenation, in document order, of every maximal run
// of characters present in newText but not in oldText, per a character-level
// LCS diff. Positions are deliberately not exposed; callers only scan the
// returned delta for tokens.
//
// Inserted(t, t) is always the empty string.
func Inserted(oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	dmp := diffmatchpatch.New()
	// The line-mode pre-pass keeps large documents well away from the
	// quadratic worst case; runs are refined back to character level.
	diffs := dmp.DiffMain(oldText, newText, true)

	var b strings.Builder
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffInsert {
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
