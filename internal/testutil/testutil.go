// Package testutil provides shared test helpers: temp vaults, a scripted
// recognizer, and a recording notifier.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/mattvik/texsnap/internal/apperr"
	"github.com/mattvik/texsnap/internal/storage"
)

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// FakeRecognizer returns scripted text per call and records submissions.
type FakeRecognizer struct {
	mu sync.Mutex

	// Text is returned for every recognition unless Err is set.
	Text string
	// Err, if non-nil, fails every recognition.
	Err error

	calls int
}

// Recognize implements gateway.Recognizer.
func (f *FakeRecognizer) Recognize(_ context.Context, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	if f.Text == "" {
		return "", apperr.ErrGatewayEmpty
	}
	return f.Text, nil
}

// Calls returns how many recognitions were attempted.
func (f *FakeRecognizer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// RecordingNotifier captures notices for assertions.
type RecordingNotifier struct {
	mu       sync.Mutex
	infos    []string
	errors   []string
	docPaths []string
}

// Info implements notify.Notifier.
func (n *RecordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

// Error implements notify.Notifier.
func (n *RecordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

// DocumentUpdated implements notify.Notifier.
func (n *RecordingNotifier) DocumentUpdated(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.docPaths = append(n.docPaths, path)
}

// Infos returns a copy of the captured info notices.
func (n *RecordingNotifier) Infos() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.infos...)
}

// Errors returns a copy of the captured error notices.
func (n *RecordingNotifier) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

// UpdatedDocs returns a copy of the captured document-updated paths.
func (n *RecordingNotifier) UpdatedDocs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.docPaths...)
}
