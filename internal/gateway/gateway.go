// Package gateway talks to the remote math-OCR service.
package gateway

import "context"

// Recognizer converts image bytes into recognised text.
// Implementations return apperr.ErrGatewayNetwork for transport-level
// failures and apperr.ErrGatewayEmpty when the service produced no text.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mime string) (string, error)
}

// Verify *Client satisfies Recognizer at compile time.
var _ Recognizer = (*Client)(nil)
