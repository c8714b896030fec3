// Package manual implements the user-triggered OCR actions: recognise a
// single selected reference, or every reference in a document at once.
package manual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mattvik/texsnap/internal/apperr"
	"github.com/mattvik/texsnap/internal/gateway"
	"github.com/mattvik/texsnap/internal/mathtex"
	"github.com/mattvik/texsnap/internal/notify"
	"github.com/mattvik/texsnap/internal/resolve"
	"github.com/mattvik/texsnap/internal/scan"
	"github.com/mattvik/texsnap/internal/storage"
)

// maxConcurrentOCR bounds the gateway fan-out of a whole-document pass.
const maxConcurrentOCR = 4

// Summary reports the outcome of a whole-document pass.
type Summary struct {
	Found    int `json:"found"`
	Replaced int `json:"replaced"`
	Failed   int `json:"failed"`
}

// Service executes manual OCR actions. Unlike the auto controller it keeps no
// baseline and consults no session ledger; a whole-document pass dedups
// verbatim tokens only within itself.
type Service struct {
	store    storage.Provider
	resolver *resolve.Resolver
	gw       gateway.Recognizer
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewService creates a manual OCR service.
func NewService(store storage.Provider, resolver *resolve.Resolver, gw gateway.Recognizer, notifier notify.Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, resolver: resolver, gw: gw, notifier: notifier, logger: logger}
}

// OcrSelection recognises the single image reference in selection and
// replaces its first occurrence in the document with the result. The
// selection must be exactly one well-formed reference.
func (s *Service) OcrSelection(ctx context.Context, docPath, selection string) (string, error) {
	if docPath == "" {
		return "", apperr.ErrNoActiveDocument
	}
	ref, ok := scan.Exact(strings.TrimSpace(selection))
	if !ok {
		return "", apperr.ErrMalformedSelection
	}

	text, err := s.recognize(ctx, docPath, ref)
	if err != nil {
		return "", err
	}

	// Replace against the freshest text, not a captured copy.
	data, err := s.store.Read(docPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}
	cur := string(data)
	if !strings.Contains(cur, ref.RawToken) {
		return "", fmt.Errorf("selection %q not present in %s", ref.RawToken, docPath)
	}
	next := strings.Replace(cur, ref.RawToken, text, 1)
	if err := s.store.Write(docPath, []byte(next)); err != nil {
		return "", err
	}

	s.notifier.Info(fmt.Sprintf("recognised %s in %s", ref.RawToken, docPath))
	s.notifier.DocumentUpdated(docPath)
	return text, nil
}

// OcrDocument scans the entire document, recognises every reference
// concurrently, then rewrites the document in a single bulk pass replacing
// all occurrences of each successful token. Failed references keep their
// tokens untouched.
func (s *Service) OcrDocument(ctx context.Context, docPath string) (Summary, error) {
	if docPath == "" {
		return Summary{}, apperr.ErrNoActiveDocument
	}
	data, err := s.store.Read(docPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Summary{}, apperr.ErrNotFound
		}
		return Summary{}, err
	}
	orig := string(data)

	// Per-pass dedup: a token appearing twice verbatim names the same image
	// and is recognised once.
	seen := make(map[string]struct{})
	var refs []scan.Reference
	for _, ref := range scan.FindAll(orig) {
		if _, dup := seen[ref.RawToken]; dup {
			continue
		}
		seen[ref.RawToken] = struct{}{}
		refs = append(refs, ref)
	}

	summary := Summary{Found: len(refs)}
	if len(refs) == 0 {
		return summary, nil
	}

	results := make([]string, len(refs))
	errs := make([]error, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOCR)
	for i, ref := range refs {
		g.Go(func() error {
			text, rerr := s.recognize(gctx, docPath, ref)
			results[i], errs[i] = text, rerr
			return nil
		})
	}
	_ = g.Wait()

	next := orig
	for i, ref := range refs {
		if errs[i] != nil {
			summary.Failed++
			s.notifier.Error(fmt.Sprintf("could not recognise %s: %v", ref.RawToken, errs[i]))
			s.logger.Warn("manual: reference failed",
				slog.String("path", docPath),
				slog.String("token", ref.RawToken),
				slog.String("error", errs[i].Error()))
			continue
		}
		summary.Replaced++
		next = strings.ReplaceAll(next, ref.RawToken, results[i])
	}

	if summary.Replaced > 0 {
		if err := s.store.Write(docPath, []byte(next)); err != nil {
			return summary, fmt.Errorf("manual: write document: %w", err)
		}
		s.notifier.DocumentUpdated(docPath)
	}
	s.notifier.Info(fmt.Sprintf("recognised %d of %d references in %s", summary.Replaced, summary.Found, docPath))
	return summary, nil
}

// recognize runs resolve → fetch → OCR → normalise for one reference.
func (s *Service) recognize(ctx context.Context, docPath string, ref scan.Reference) (string, error) {
	imgPath, err := s.resolver.Resolve(ctx, ref.Path, docPath)
	if err != nil {
		return "", err
	}
	img, mime, err := s.resolver.ReadImage(imgPath)
	if err != nil {
		return "", err
	}
	text, err := s.gw.Recognize(ctx, img, mime)
	if err != nil {
		return "", err
	}
	return mathtex.Normalize(text), nil
}
