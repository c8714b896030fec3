// Package scan extracts image-reference tokens from Markdown text.
package scan

import (
	"regexp"
	"strings"
)

// refRe matches both supported image syntaxes in one pass so that results
// come out in document order and never overlap:
//   - wiki embeds:      ![[attachments/shot.png]]  (no ] inside the target)
//   - markdown images:  ![alt](shot.png)           (target runs to the first ) on the line)
//
// Unterminated tokens have no closing delimiter and therefore never match.
var refRe = regexp.MustCompile(`!\[\[([^\[\]\n]+)\]\]|!\[[^\]\n]*\]\(([^)\n]+)\)`)

// Reference is one image-reference token found in a document.
type Reference struct {
	// RawToken is the exact substring matched in the document. It is the
	// dedup key and the literal text replaced by a recognition result.
	RawToken string
	// Path is the link target extracted from the token.
	Path string
}

// FindAll returns every image reference in text, left to right,
// non-overlapping. Malformed tokens are skipped entirely.
func FindAll(text string) []Reference {
	matches := refRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Reference, 0, len(matches))
	for _, m := range matches {
		// Exactly one of the two capture groups is non-empty; it wins.
		target := m[1]
		if target == "" {
			target = m[2]
		}
		target = cleanTarget(target)
		if target == "" {
			continue
		}
		out = append(out, Reference{RawToken: m[0], Path: target})
	}
	return out
}

// Exact reports whether sel is exactly one well-formed image reference and
// returns it. Leading/trailing content of any kind fails the check.
func Exact(sel string) (Reference, bool) {
	loc := refRe.FindStringIndex(sel)
	if loc == nil || loc[0] != 0 || loc[1] != len(sel) {
		return Reference{}, false
	}
	refs := FindAll(sel)
	if len(refs) != 1 {
		return Reference{}, false
	}
	return refs[0], true
}

// cleanTarget normalises a link target: wiki embeds may carry a display
// modifier after a pipe (e.g. ![[img.png|300]]) which is not part of the path.
func cleanTarget(target string) string {
	if i := strings.Index(target, "|"); i >= 0 {
		target = target[:i]
	}
	return strings.TrimSpace(target)
}
