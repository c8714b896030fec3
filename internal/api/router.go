package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mattvik/texsnap/internal/controller"
	"github.com/mattvik/texsnap/internal/manual"
	"github.com/mattvik/texsnap/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(store storage.Provider, ctrl *controller.Controller, man *manual.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(store, ctrl, man)
	ah := NewAttachmentHandler(store.Root())

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents.
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.PutNote)

	// Auto-OCR mode.
	r.Get("/auto", h.AutoStatus)
	r.Post("/auto", h.SetAuto)

	// Manual OCR.
	r.Post("/ocr/selection", h.OcrSelection)
	r.Post("/ocr/document", h.OcrDocument)

	// Attachments: paste target and asset serving.
	r.Post("/attachments", ah.Upload)
	r.Get("/attachments/{filename}", ah.ServeFile)

	// SSE notices (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
