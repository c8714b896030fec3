package api

import (
	"time"

	"github.com/mattvik/texsnap/internal/controller"
	"github.com/mattvik/texsnap/internal/manual"
)

// NoteResponse is the full document payload.
type NoteResponse struct {
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PutNoteRequest is the request body for writing a document.
type PutNoteRequest struct {
	Content string `json:"content"`
}

// SetAutoRequest toggles auto-OCR mode.
type SetAutoRequest struct {
	Enabled bool `json:"enabled"`
}

// AutoStatusResponse reports the controller state (aliased from the domain layer).
type AutoStatusResponse = controller.Status

// OcrSelectionRequest is the request body for recognising one selection.
type OcrSelectionRequest struct {
	Path      string `json:"path"`
	Selection string `json:"selection"`
}

// OcrSelectionResponse carries the recognised text of one selection.
type OcrSelectionResponse struct {
	Text string `json:"text"`
}

// OcrDocumentRequest names the document for a whole-document pass.
type OcrDocumentRequest struct {
	Path string `json:"path"`
}

// OcrDocumentResponse summarises a whole-document pass (aliased from the domain layer).
type OcrDocumentResponse = manual.Summary

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}
