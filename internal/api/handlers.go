package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mattvik/texsnap/internal/apperr"
	"github.com/mattvik/texsnap/internal/controller"
	"github.com/mattvik/texsnap/internal/manual"
	"github.com/mattvik/texsnap/internal/storage"
)

// Handler holds API route handlers.
type Handler struct {
	store storage.Provider
	ctrl  *controller.Controller
	man   *manual.Service
}

// NewHandler creates a new Handler.
func NewHandler(store storage.Provider, ctrl *controller.Controller, man *manual.Service) *Handler {
	return &Handler{store: store, ctrl: ctrl, man: man}
}

// notePath extracts the document path from the URL (everything after /notes/).
// Supports encoded slashes from API clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrReferenceNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrMalformedSelection), errors.Is(err, apperr.ErrNoActiveDocument):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrGatewayEmpty):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrGatewayNetwork):
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// GetNote handles GET /notes/*.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	data, err := h.store.Read(path)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	info, _ := h.store.Stat(path)
	writeJSON(w, http.StatusOK, NoteResponse{
		Path:      path,
		Content:   string(data),
		Size:      info.Size,
		UpdatedAt: info.UpdatedAt,
	})
}

// PutNote handles PUT /notes/*. The write lands in the vault, so the change
// watcher picks it up like any other edit.
func (h *Handler) PutNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req PutNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.Write(path, []byte(req.Content)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// AutoStatus handles GET /auto.
func (h *Handler) AutoStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

// SetAuto handles POST /auto.
func (h *Handler) SetAuto(w http.ResponseWriter, r *http.Request) {
	var req SetAutoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	h.ctrl.SetAuto(req.Enabled)
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

// OcrSelection handles POST /ocr/selection.
func (h *Handler) OcrSelection(w http.ResponseWriter, r *http.Request) {
	var req OcrSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	text, err := h.man.OcrSelection(r.Context(), req.Path, req.Selection)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OcrSelectionResponse{Text: text})
}

// OcrDocument handles POST /ocr/document.
func (h *Handler) OcrDocument(w http.ResponseWriter, r *http.Request) {
	var req OcrDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	sum, err := h.man.OcrDocument(r.Context(), req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
