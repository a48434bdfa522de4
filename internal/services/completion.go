package services

import (
	"context"
	"errors"

	"flint/internal/models"
)

// SystemPrompt is prepended to every conversation forwarded upstream.
// It never appears in client-visible history.
const SystemPrompt = `You are a conversational product thinking assistant helping users turn their vague app or product ideas into a clear and structured Product Requirements Document (PRD).
Your job is to guide the user step by step, using short, friendly, and clear questions.
You must not generate the full PRD at once. Instead, guide the user through key sections one at a time:
1. Problem / User Pain
2. Target Users
3. User Goals
4. Key Features
5. Success Metrics
6. Constraints or Assumptions
For each section:
* Ask 1 clear guiding question
* Wait for the user's response
* Summarize or reflect back what they said in a concise way
* Then offer 2–3 optional follow-up questions that could deepen or expand their thinking
If the user seems stuck, give them an example from a popular app (e.g. Spotify, Duolingo, Notion).
Your tone should be supportive, focused, and collaborative — not overly technical.`

const (
	ChatMaxTokens   = 800
	ChatTemperature = 0.7
)

// CompletionRequest is a provider-neutral chat completion call.
type CompletionRequest struct {
	Messages    []models.Message
	MaxTokens   int
	Temperature *float64 // nil leaves the provider default
}

// Completer is implemented by every upstream chat-completion provider.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*models.Message, error)
	Provider() string
	Model() string
}

// ChatService relays client conversations to the configured completer.
type ChatService struct {
	completer Completer
}

func NewChatService(completer Completer) *ChatService {
	return &ChatService{completer: completer}
}

func (s *ChatService) Provider() string { return s.completer.Provider() }
func (s *ChatService) Model() string    { return s.completer.Model() }

// Reply forwards [system prompt] ++ messages with the fixed chat parameters.
// Every failure comes back as *UpstreamError.
func (s *ChatService) Reply(ctx context.Context, messages []models.Message) (*models.Message, error) {
	temperature := ChatTemperature
	reply, err := s.completer.Complete(ctx, CompletionRequest{
		Messages:    WithSystemPrompt(messages),
		MaxTokens:   ChatMaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		var upstreamErr *UpstreamError
		if errors.As(err, &upstreamErr) {
			return nil, upstreamErr
		}
		return nil, newUpstreamError(s.completer.Provider(), 0, "", err)
	}
	return reply, nil
}

// WithSystemPrompt returns a new slice with the system instruction first.
func WithSystemPrompt(messages []models.Message) []models.Message {
	out := make([]models.Message, 0, len(messages)+1)
	out = append(out, models.Message{Role: models.RoleSystem, Content: SystemPrompt})
	out = append(out, messages...)
	return out
}
