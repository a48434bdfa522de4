package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"flint/internal/models"
	"flint/internal/services"
)

const (
	maxChatBodyBytes = 1 << 20

	msgInvalidMessages  = "Invalid messages format: Expected array"
	msgBodyTooLarge     = "Request body too large"
	msgMethodNotAllowed = "Method not allowed"
	msgInternalError    = "Internal server error"
)

type chatReplier interface {
	Reply(ctx context.Context, messages []models.Message) (*models.Message, error)
	Provider() string
	Model() string
}

type exchangeRecorder interface {
	Record(ctx context.Context, e *models.Exchange) error
}

type ChatHandler struct {
	chat        chatReplier
	archive     exchangeRecorder
	exposeStack bool
}

// NewChatHandler builds the proxy handler. Stack traces are only included in
// 500 responses when exposeStack is set.
func NewChatHandler(chat chatReplier, exposeStack bool) *ChatHandler {
	return &ChatHandler{
		chat:        chat,
		exposeStack: exposeStack,
	}
}

// WithArchive records every proxied exchange through archive.
func (h *ChatHandler) WithArchive(archive exchangeRecorder) *ChatHandler {
	h.archive = archive
	return h
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorResp(msgMethodNotAllowed))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err != nil {
		log.Printf("Failed to read request body: %v", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp(msgBodyTooLarge))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp(msgInvalidMessages))
		return
	}
	log.Printf("Received request with body: %s", prettyJSON(body))

	messages, err := decodeMessages(body)
	if err != nil {
		log.Print(err)
		writeJSON(w, http.StatusBadRequest, errorResp(err.Error()))
		return
	}

	start := time.Now()
	reply, err := h.chat.Reply(r.Context(), messages)
	latency := time.Since(start)
	if err != nil {
		resp := models.ErrorResponse{Error: msgInternalError, Details: err.Error()}

		var upstreamErr *services.UpstreamError
		if errors.As(err, &upstreamErr) {
			log.Printf("Error in /api/chat: message=%q provider=%s status=%d response=%s",
				upstreamErr.Error(), upstreamErr.Provider, upstreamErr.StatusCode, upstreamErr.Body)
			if h.exposeStack {
				resp.Stack = upstreamErr.Stack
			}
		} else {
			log.Printf("Error in /api/chat: %v", err)
		}

		writeJSON(w, http.StatusInternalServerError, resp)
		h.record(r, len(messages), http.StatusInternalServerError, nil, err, latency)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Message: reply})
	h.record(r, len(messages), http.StatusOK, reply, nil, latency)
}

// decodeMessages accepts any JSON object whose "messages" member is an array
// of {role, content} objects.
func decodeMessages(body []byte) ([]models.Message, error) {
	invalid := &services.ValidationError{Message: msgInvalidMessages}

	var req struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, invalid
	}

	raw := bytes.TrimSpace(req.Messages)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, invalid
	}

	var messages []models.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, invalid
	}
	return messages, nil
}

func (h *ChatHandler) record(r *http.Request, count, status int, reply *models.Message, replyErr error, latency time.Duration) {
	if h.archive == nil {
		return
	}

	e := &models.Exchange{
		ID:           uuid.New(),
		RequestID:    r.Header.Get("X-Request-ID"),
		Provider:     h.chat.Provider(),
		Model:        h.chat.Model(),
		MessageCount: count,
		Status:       status,
		LatencyMS:    latency.Milliseconds(),
	}
	if reply != nil {
		e.Reply = &reply.Content
	}
	if replyErr != nil {
		msg := replyErr.Error()
		e.ErrorMessage = &msg
	}

	if err := h.archive.Record(r.Context(), e); err != nil {
		log.Printf("Failed to archive exchange %s: %v", e.ID, err)
	}
}

func prettyJSON(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}
