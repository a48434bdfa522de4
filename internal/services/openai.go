package services

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

// OpenAICompleter talks to an OpenAI-compatible /chat/completions endpoint.
type OpenAICompleter struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAICompleter creates a completer for the OpenAI API.
// Model defaults to "gpt-4o-mini" and baseURL to the public API when empty.
// The transport default timeout is kept; no override is applied.
func NewOpenAICompleter(apiKey, model, baseURL string) *OpenAICompleter {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAICompleter{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

func (c *OpenAICompleter) Provider() string { return "openai" }
func (c *OpenAICompleter) Model() string    { return c.model }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (*models.Message, error) {
	body := openAIRequest{
		Model:       c.model,
		Messages:    make([]openAIMessage, 0, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, openAIMessage{Role: m.Role, Content: m.Content})
	}

	var result openAIResponse
	err := c.doJSONRoundTrip(ctx, http.MethodPost, c.baseURL+"/chat/completions",
		map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + c.apiKey,
		},
		body, &result)
	if err != nil {
		return nil, err
	}

	if len(result.Choices) == 0 {
		return nil, newUpstreamError(c.Provider(), 0, "", fmt.Errorf("no choices in response"))
	}
	msg := result.Choices[0].Message
	if msg.Role == "" {
		msg.Role = models.RoleAssistant
	}
	return &models.Message{Role: msg.Role, Content: msg.Content}, nil
}

func (c *OpenAICompleter) doJSONRoundTrip(
	ctx context.Context,
	method, url string,
	headers map[string]string,
	reqBody any,
	respBody any,
) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return newUpstreamError(c.Provider(), 0, "", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(jsonBody))
	if err != nil {
		return newUpstreamError(c.Provider(), 0, "", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return newUpstreamError(c.Provider(), 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return newUpstreamError(c.Provider(), 0, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newUpstreamError(c.Provider(), resp.StatusCode, string(body),
			fmt.Errorf("error (%d): %s", resp.StatusCode, string(body)))
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return newUpstreamError(c.Provider(), 0, string(body), fmt.Errorf("parsing response: %w", err))
	}
	return nil
}
