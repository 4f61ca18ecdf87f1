// Package facerec is a client for an external face recognition service
package facerec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cyclopcam/overwatch/server/tracking"
)

var ErrNotConfigured = errors.New("Face recognition service URL is not configured")

// SYNC-FACEREC-RESPONSE-JSON
type recognizeResponseJSON struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // Distance from the best match. Lower is better.
	Known      bool    `json:"known"`
}

// Client sends face images to the recognition service.
// It implements tracking.FaceResolver.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// Recognize POSTs the encoded face image to <baseURL>/recognize
func (c *Client) Recognize(face []byte) (tracking.Recognition, error) {
	if c.baseURL == "" {
		return tracking.Recognition{}, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recognize", bytes.NewReader(face))
	if err != nil {
		return tracking.Recognition{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return tracking.Recognition{}, fmt.Errorf("failed to call face recognition service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return tracking.Recognition{}, fmt.Errorf("face recognition service returned %v: %v", resp.Status, string(msg))
	}

	r := recognizeResponseJSON{}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return tracking.Recognition{}, fmt.Errorf("failed to decode face recognition response: %w", err)
	}
	return tracking.Recognition{
		Label:      r.Label,
		Confidence: r.Confidence,
		Known:      r.Known,
	}, nil
}
