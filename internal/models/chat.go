package models

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn of a conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`

	// IsError marks replies synthesized by the client after a failed turn.
	// It is persisted with the history but never sent upstream.
	IsError bool `json:"isError,omitempty"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// ChatResponse carries the assistant message returned upstream.
type ChatResponse struct {
	Message *Message `json:"message,omitempty"`
}

// ErrorResponse is the body of every non-2xx chat endpoint response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Stack   string `json:"stack,omitempty"`
}
