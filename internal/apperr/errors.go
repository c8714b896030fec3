// Package apperr defines the sentinel errors shared across texsnap.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a vault file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrReferenceNotFound is returned when image resolution exhausted its retries.
	ErrReferenceNotFound = errors.New("image reference not found")

	// ErrGatewayNetwork is returned on transport-level OCR gateway failures,
	// including non-2xx responses.
	ErrGatewayNetwork = errors.New("ocr gateway network failure")

	// ErrGatewayEmpty is returned when the gateway answered but produced no
	// usable text. An empty recognition is treated as a failure.
	ErrGatewayEmpty = errors.New("ocr gateway returned no text")

	// ErrMalformedSelection is returned by the manual path when the selection
	// is not exactly one well-formed image reference.
	ErrMalformedSelection = errors.New("selection is not a single image reference")

	// ErrNoActiveDocument is returned by the manual path when no document
	// context was supplied.
	ErrNoActiveDocument = errors.New("no active document")
)
