// Package mathtex normalises math delimiters in OCR output before insertion.
package mathtex

import (
	"regexp"
	"strings"
)

// Gateway responses use LaTeX-style delimiters; notes use dollar-style.
// Conversion trims any whitespace run (including newlines) adjacent to a
// delimiter on its inside.
var (
	displayOpenRe  = regexp.MustCompile(`\\\[\s*`)
	displayCloseRe = regexp.MustCompile(`\s*\\\]`)
	inlineOpenRe   = regexp.MustCompile(`\\\(\s*`)
	inlineCloseRe  = regexp.MustCompile(`\s*\\\)`)
	innerTrimRe    = regexp.MustCompile(`\$\s*([^$]*?)\s*\$`)
)

// Normalize converts bracket-style display math to $$…$$, parenthesis-style
// inline math to $…$, and trims whitespace immediately inside single-dollar
// pairs. Applying it again to text with no remaining source-form delimiters
// is a no-op.
func Normalize(s string) string {
	s = displayOpenRe.ReplaceAllString(s, "$$$$")
	s = displayCloseRe.ReplaceAllString(s, "$$$$")
	s = inlineOpenRe.ReplaceAllString(s, "$$")
	s = inlineCloseRe.ReplaceAllString(s, "$$")
	return trimInsideInline(s)
}

// trimInsideInline tightens $ x $ to $x$ without touching the interiors of
// $$…$$ display blocks. Splitting on the doubled delimiter keeps display
// segments out of the single-dollar pass.
func trimInsideInline(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	parts := strings.Split(s, "$$")
	for i := 0; i < len(parts); i += 2 {
		parts[i] = innerTrimRe.ReplaceAllString(parts[i], "$$${1}$$")
	}
	return strings.Join(parts, "$$")
}
