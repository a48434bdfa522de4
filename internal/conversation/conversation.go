// Package conversation holds the client-side chat state: the ordered
// history, the loading/complete flags, the captured PRD document and the
// persisted copy of the history.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"flint/internal/models"
	"flint/internal/worker"
)

const (
	// StorageKey is the single key holding the serialized history.
	StorageKey = "flint_chat_history"

	// CompletionMarker prefixes the assistant message carrying the final PRD.
	CompletionMarker = "# PRD"

	SeedGreeting   = "Hi! I'm flint. Tell me your product idea, and let's dive into it!"
	SummaryPrompt  = "Please summarize the key points of our conversation in 2-3 concise sentences."
	ExportFileName = "PRD.txt"

	// A summary is requested once the history reaches this many messages.
	summaryThreshold = 4
)

var (
	ErrEmptyInput  = errors.New("message is empty")
	ErrBusy        = errors.New("a message is already being sent")
	ErrNotComplete = errors.New("no PRD has been produced yet")
)

// Sender delivers the full history to the chat proxy.
type Sender interface {
	Chat(ctx context.Context, messages []models.Message) (*models.Message, error)
}

// Seed returns the initial one-message history.
func Seed() []models.Message {
	return []models.Message{{Role: models.RoleAssistant, Content: SeedGreeting}}
}

type Conversation struct {
	sender Sender
	store  Store
	tasks  *worker.Detached

	mu       sync.Mutex
	messages []models.Message
	loading  bool
	complete bool
	document string
}

// Open restores the history persisted under StorageKey, or starts from the
// seed message when nothing usable is stored.
func Open(ctx context.Context, sender Sender, store Store) (*Conversation, error) {
	c := &Conversation{
		sender: sender,
		store:  store,
		tasks:  worker.NewDetached(),
	}

	messages, err := load(ctx, store)
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		c.appendLocked(m)
	}
	return c, nil
}

func load(ctx context.Context, store Store) ([]models.Message, error) {
	data, err := store.Load(ctx, StorageKey)
	if errors.Is(err, ErrNotFound) {
		return Seed(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	var messages []models.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		log.Printf("Stored history is unreadable, starting over: %v", err)
		return Seed(), nil
	}
	if len(messages) == 0 {
		return Seed(), nil
	}
	return messages, nil
}

// Messages returns a copy of the visible history.
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneMessages(c.messages)
}

func (c *Conversation) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Conversation) Complete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.complete
}

// Document returns the captured PRD text, empty until Complete.
func (c *Conversation) Document() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.document
}

// Send appends a user turn and blocks for the assistant's reply.
//
// Blank input returns ErrEmptyInput and a send while another is in flight
// returns ErrBusy; neither touches the history. Proxy failures do not surface
// as errors: they become an assistant message flagged IsError.
func (c *Conversation) Send(ctx context.Context, text string) error {
	c.mu.Lock()
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return ErrEmptyInput
	}
	if c.loading {
		c.mu.Unlock()
		return ErrBusy
	}

	c.appendLocked(models.Message{Role: models.RoleUser, Content: text})
	c.persistLocked(ctx)
	c.loading = true
	history := cloneMessages(c.messages)
	c.mu.Unlock()

	reply, err := c.sender.Chat(ctx, history)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.loading = false }()

	if err == nil && reply == nil {
		err = errors.New("Invalid response format: No message in response")
	}
	if err != nil {
		log.Printf("Error sending message: %v", err)
		c.appendLocked(models.Message{
			Role:    models.RoleAssistant,
			Content: fmt.Sprintf("Error: %s. Please try again or check the logs for details.", err),
			IsError: true,
		})
		c.persistLocked(ctx)
		return nil
	}

	msg := models.Message{Role: reply.Role, Content: reply.Content}
	if msg.Role == "" {
		msg.Role = models.RoleAssistant
	}
	c.appendLocked(msg)
	c.persistLocked(ctx)

	if len(c.messages) >= summaryThreshold {
		c.summarize(cloneMessages(c.messages))
	}
	return nil
}

// summarize asks for a short recap in the background. The result is only
// logged; it never changes the visible history.
func (c *Conversation) summarize(history []models.Message) {
	request := append(history, models.Message{Role: models.RoleUser, Content: SummaryPrompt})
	c.tasks.Go("conversation summary", func(ctx context.Context) error {
		reply, err := c.sender.Chat(ctx, request)
		if err != nil {
			return fmt.Errorf("generating summary: %w", err)
		}
		summary := "Conversation summary not available"
		if reply != nil && reply.Content != "" {
			summary = reply.Content
		}
		log.Printf("Conversation summary: %s", summary)
		return nil
	})
}

// Export writes the captured PRD verbatim.
func (c *Conversation) Export(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.complete {
		return ErrNotComplete
	}
	_, err := io.WriteString(w, c.document)
	return err
}

// ExportFile writes the captured PRD to path (ExportFileName when empty).
func (c *Conversation) ExportFile(path string) (string, error) {
	if path == "" {
		path = ExportFileName
	}
	if !c.Complete() {
		return "", ErrNotComplete
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := c.Export(f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// Clear resets the history to the seed and removes the persisted copy, but
// only if confirm returns true. confirm is called without holding any lock.
func (c *Conversation) Clear(ctx context.Context, confirm func() bool) (bool, error) {
	if c.Loading() {
		return false, ErrBusy
	}
	if confirm == nil || !confirm() {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return false, ErrBusy
	}

	if err := c.store.Remove(ctx, StorageKey); err != nil {
		return false, fmt.Errorf("removing history: %w", err)
	}
	c.messages = Seed()
	c.complete = false
	c.document = ""
	return true, nil
}

// Close cancels outstanding background summaries and waits for them.
func (c *Conversation) Close() {
	c.tasks.Stop()
}

func (c *Conversation) appendLocked(m models.Message) {
	c.messages = append(c.messages, m)
	c.detectCompletionLocked()
}

// detectCompletionLocked latches complete once the latest assistant message
// starts with CompletionMarker. Only Clear resets it.
func (c *Conversation) detectCompletionLocked() {
	for i := len(c.messages) - 1; i >= 0; i-- {
		m := c.messages[i]
		if m.Role != models.RoleAssistant {
			continue
		}
		if strings.HasPrefix(m.Content, CompletionMarker) {
			c.complete = true
			c.document = m.Content
		}
		return
	}
}

// persistLocked writes the history unless only the seed is present.
// Storage failures are logged; the in-memory history stays authoritative.
func (c *Conversation) persistLocked(ctx context.Context) {
	if len(c.messages) <= 1 {
		return
	}
	data, err := json.Marshal(c.messages)
	if err != nil {
		log.Printf("Failed to encode history: %v", err)
		return
	}
	if err := c.store.Save(ctx, StorageKey, data); err != nil {
		log.Printf("Failed to save history: %v", err)
	}
}

func cloneMessages(in []models.Message) []models.Message {
	out := make([]models.Message, len(in))
	copy(out, in)
	return out
}
