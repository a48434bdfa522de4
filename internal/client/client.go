// Package client talks to the flint chat proxy over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"flint/internal/models"
)

const DefaultBaseURL = "http://localhost:3001/api"

// Client posts conversations to <baseURL>/chat.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a proxy client. No timeout is set beyond the transport defaults.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// APIError is a non-2xx answer from the proxy.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Chat sends the full history and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, messages []models.Message) (*models.Message, error) {
	payload, err := json.Marshal(models.ChatRequest{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp models.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
			apiErr.Details = errResp.Details
		} else {
			apiErr.Message = fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
		}
		return nil, apiErr
	}

	var data models.ChatResponse
	if err := json.Unmarshal(body, &data); err != nil || data.Message == nil {
		return nil, fmt.Errorf("Invalid response format: No message in response")
	}
	return data.Message, nil
}
