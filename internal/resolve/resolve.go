// Package resolve locates image files referenced from vault documents.
package resolve

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/mattvik/texsnap/internal/apperr"
	"github.com/mattvik/texsnap/internal/storage"
)

// mimeByExt covers the image formats the gateway accepts.
var mimeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// ImageExts returns the recognised image file extensions.
func ImageExts() []string {
	out := make([]string, 0, len(mimeByExt))
	for e := range mimeByExt {
		out = append(out, e)
	}
	return out
}

// Resolver finds image files in the vault. Lookups retry on a fixed schedule
// because a pasted image may not have hit the file system yet when the change
// event that references it arrives.
type Resolver struct {
	store     storage.Provider
	attachDir string
	attempts  int
	delay     time.Duration
}

// New creates a Resolver. attachDir is the vault-relative attachments
// directory checked after document-relative and root-relative candidates.
func New(store storage.Provider, attachDir string, attempts int, delay time.Duration) *Resolver {
	if attempts < 1 {
		attempts = 1
	}
	return &Resolver{store: store, attachDir: attachDir, attempts: attempts, delay: delay}
}

// Resolve returns the vault-relative path of the image named by target,
// looked up from the context of fromDoc. It polls up to the configured
// attempt count before giving up with apperr.ErrReferenceNotFound.
func (r *Resolver) Resolve(ctx context.Context, target, fromDoc string) (string, error) {
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(r.delay):
			}
		}
		if p, ok := r.lookup(target, fromDoc); ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("resolve %q: %w", target, apperr.ErrReferenceNotFound)
}

// lookup tries candidate locations in a fixed order: relative to the
// referencing document, relative to the vault root, inside the attachments
// directory, then a vault-wide unique basename match.
func (r *Resolver) lookup(target, fromDoc string) (string, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", false
	}

	var candidates []string
	if fromDoc != "" {
		candidates = append(candidates, path.Join(path.Dir(fromDoc), target))
	}
	candidates = append(candidates, path.Clean(target))
	if r.attachDir != "" {
		candidates = append(candidates, path.Join(r.attachDir, target))
	}

	for _, c := range candidates {
		if _, err := r.store.Stat(c); err == nil {
			return c, true
		}
	}

	// Vault-wide basename match, wiki-link style. Ambiguous names do not
	// resolve.
	base := path.Base(target)
	infos, err := r.store.List("", ImageExts()...)
	if err != nil {
		return "", false
	}
	var found string
	for _, info := range infos {
		if path.Base(info.Path) == base {
			if found != "" {
				return "", false
			}
			found = info.Path
		}
	}
	return found, found != ""
}

// ReadImage returns the bytes and MIME type of a resolved image path.
func (r *Resolver) ReadImage(relPath string) ([]byte, string, error) {
	data, err := r.store.Read(relPath)
	if err != nil {
		return nil, "", fmt.Errorf("resolve: read image: %w", err)
	}
	ext := strings.ToLower(path.Ext(relPath))
	mime, ok := mimeByExt[ext]
	if !ok {
		mime = "application/octet-stream"
	}
	return data, mime, nil
}
