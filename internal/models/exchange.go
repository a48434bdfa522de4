package models

import (
	"time"

	"github.com/google/uuid"
)

// Exchange is one proxied chat round trip as recorded in the archive.
type Exchange struct {
	ID           uuid.UUID `json:"id"`
	RequestID    string    `json:"request_id"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	MessageCount int       `json:"message_count"`
	Status       int       `json:"status"`
	Reply        *string   `json:"reply"`
	ErrorMessage *string   `json:"error_message"`
	LatencyMS    int64     `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}
