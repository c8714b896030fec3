package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mattvik/texsnap/internal/apperr"
)

// Credentials are the two opaque strings the OCR service authenticates with.
type Credentials struct {
	AppID  string
	AppKey string
}

// Client is an HTTP client for a Mathpix-compatible recognition endpoint.
type Client struct {
	endpoint string
	creds    Credentials
	httpc    *http.Client
}

// NewClient creates a gateway client. A zero timeout means no client-side
// request timeout.
func NewClient(endpoint string, creds Credentials, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		creds:    creds,
		httpc:    &http.Client{Timeout: timeout},
	}
}

type recognizeRequest struct {
	Src     string   `json:"src"`
	Formats []string `json:"formats"`
}

type recognizeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Recognize submits the image as an inline base64 data URI and returns the
// recognised text.
func (c *Client) Recognize(ctx context.Context, image []byte, mime string) (string, error) {
	body, err := json.Marshal(recognizeRequest{
		Src:     fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image)),
		Formats: []string{"text"},
	})
	if err != nil {
		return "", fmt.Errorf("gateway: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("app_id", c.creds.AppID)
	req.Header.Set("app_key", c.creds.AppKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway: %v: %w", err, apperr.ErrGatewayNetwork)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("gateway: status %d: %w", resp.StatusCode, apperr.ErrGatewayNetwork)
	}

	var out recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gateway: decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("gateway: service error %q: %w", out.Error, apperr.ErrGatewayNetwork)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", apperr.ErrGatewayEmpty
	}
	return out.Text, nil
}
