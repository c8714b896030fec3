// Package ledger tracks image-reference tokens already submitted for OCR,
// keyed per document, so the same paste is never sent twice in one session.
package ledger

import "sync"

// Ledger is the per-document dedup record. Submission, not success, marks a
// token: a failed recognition is not retried automatically.
type Ledger struct {
	mu   sync.Mutex
	docs map[string]map[string]struct{}
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{docs: make(map[string]map[string]struct{})}
}

// ShouldSubmit reports whether token has not yet been submitted for docPath,
// and marks it submitted in the same step. The check-and-mark is atomic so two
// overlapping change events cannot both claim the same token.
func (l *Ledger) ShouldSubmit(docPath, token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.docs[docPath]
	if !ok {
		set = make(map[string]struct{})
		l.docs[docPath] = set
	}
	if _, seen := set[token]; seen {
		return false
	}
	set[token] = struct{}{}
	return true
}

// Clear empties the record for one document.
func (l *Ledger) Clear(docPath string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.docs, docPath)
}

// ClearAll empties the entire ledger.
func (l *Ledger) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs = make(map[string]map[string]struct{})
}

// Snapshot returns a copy of the ledger contents for persistence. Token order
// within a document carries no meaning.
func (l *Ledger) Snapshot() map[string][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string][]string, len(l.docs))
	for doc, set := range l.docs {
		tokens := make([]string, 0, len(set))
		for tok := range set {
			tokens = append(tokens, tok)
		}
		out[doc] = tokens
	}
	return out
}

// Restore rehydrates persisted contents into the ledger, merging with any
// tokens already present.
func (l *Ledger) Restore(contents map[string][]string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for doc, tokens := range contents {
		set, ok := l.docs[doc]
		if !ok {
			set = make(map[string]struct{}, len(tokens))
			l.docs[doc] = set
		}
		for _, tok := range tokens {
			set[tok] = struct{}{}
		}
	}
}
