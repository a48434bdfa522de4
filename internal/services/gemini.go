package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"flint/internal/models"
)

// GeminiCompleter serves the chat contract from Google's Gemini models.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiCompleter{client: client, model: model}, nil
}

func (g *GeminiCompleter) Close() {
	g.client.Close()
}

func (g *GeminiCompleter) Provider() string { return "gemini" }
func (g *GeminiCompleter) Model() string    { return g.model }

func (g *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) (*models.Message, error) {
	system, history, last, err := toGeminiContents(req.Messages)
	if err != nil {
		return nil, newUpstreamError(g.Provider(), 0, "", err)
	}

	model := g.client.GenerativeModel(g.model)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, newUpstreamError(g.Provider(), 0, "", fmt.Errorf("Gemini API error: %w", err))
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("Gemini candidate %d stopped due to %s", i, cand.FinishReason)
		}
	}

	return &models.Message{Role: models.RoleAssistant, Content: extractText(resp)}, nil
}

// toGeminiContents splits a chat-completion style message list into a system
// instruction, prior turns and the text of the final turn.
func toGeminiContents(messages []models.Message) (string, []*genai.Content, string, error) {
	var system []string
	var turns []models.Message
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 {
		return "", nil, "", fmt.Errorf("no conversation turns to send")
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	return strings.Join(system, "\n\n"), history, turns[len(turns)-1].Content, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
