package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flint/internal/models"
)

type stubSender struct {
	mu    sync.Mutex
	calls [][]models.Message
	reply func(call int, messages []models.Message) (*models.Message, error)
}

func (s *stubSender) Chat(_ context.Context, messages []models.Message) (*models.Message, error) {
	s.mu.Lock()
	s.calls = append(s.calls, cloneMessages(messages))
	n := len(s.calls)
	s.mu.Unlock()

	if s.reply == nil {
		return &models.Message{Role: models.RoleAssistant, Content: "ok"}, nil
	}
	return s.reply(n, messages)
}

func (s *stubSender) Calls() [][]models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]models.Message(nil), s.calls...)
}

func replyWith(content string) func(int, []models.Message) (*models.Message, error) {
	return func(int, []models.Message) (*models.Message, error) {
		return &models.Message{Role: models.RoleAssistant, Content: content}, nil
	}
}

func openConversation(t *testing.T, sender Sender, store Store) *Conversation {
	t.Helper()
	c, err := Open(context.Background(), sender, store)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func storedHistory(t *testing.T, store Store) []models.Message {
	t.Helper()
	data, err := store.Load(context.Background(), StorageKey)
	require.NoError(t, err)
	var out []models.Message
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestOpen_StartsFromSeed(t *testing.T) {
	c := openConversation(t, &stubSender{}, NewMemoryStore())

	assert.Equal(t, Seed(), c.Messages())
	assert.False(t, c.Complete())
	assert.False(t, c.Loading())
	assert.Empty(t, c.Document())
}

func TestOpen_RestoresHistoryAndCompletion(t *testing.T) {
	store := NewMemoryStore()
	saved := []models.Message{
		Seed()[0],
		{Role: models.RoleUser, Content: "A todo app"},
		{Role: models.RoleAssistant, Content: "# PRD\n\nTodo app"},
	}
	data, err := json.Marshal(saved)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), StorageKey, data))

	c := openConversation(t, &stubSender{}, store)

	assert.Equal(t, saved, c.Messages())
	assert.True(t, c.Complete())
	assert.Equal(t, "# PRD\n\nTodo app", c.Document())
}

func TestOpen_FallsBackToSeed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"corrupt", "{not json"},
		{"empty array", "[]"},
		{"wrong shape", `{"role":"user"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			require.NoError(t, store.Save(context.Background(), StorageKey, []byte(tt.data)))

			c := openConversation(t, &stubSender{}, store)
			assert.Equal(t, Seed(), c.Messages())
		})
	}
}

func TestSend_EmptyInputIsNoOp(t *testing.T) {
	sender := &stubSender{}
	store := NewMemoryStore()
	c := openConversation(t, sender, store)

	for _, text := range []string{"", "   ", "\n\t"} {
		err := c.Send(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}

	assert.Equal(t, Seed(), c.Messages())
	assert.Empty(t, sender.Calls())
	_, err := store.Load(context.Background(), StorageKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSend_AppendsReplyAndPersists(t *testing.T) {
	sender := &stubSender{reply: replyWith("What problem does it solve?")}
	store := NewMemoryStore()
	c := openConversation(t, sender, store)

	require.NoError(t, c.Send(context.Background(), "A todo app"))

	want := []models.Message{
		Seed()[0],
		{Role: models.RoleUser, Content: "A todo app"},
		{Role: models.RoleAssistant, Content: "What problem does it solve?"},
	}
	assert.Equal(t, want, c.Messages())
	assert.False(t, c.Loading())
	assert.Equal(t, want, storedHistory(t, store))

	calls := sender.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, want[:2], calls[0], "the full history goes to the proxy, without any system message")
}

func TestSend_FailureBecomesErrorMessage(t *testing.T) {
	sender := &stubSender{reply: func(int, []models.Message) (*models.Message, error) {
		return nil, errors.New("Internal server error: Request failed with status code 401")
	}}
	store := NewMemoryStore()
	c := openConversation(t, sender, store)

	require.NoError(t, c.Send(context.Background(), "hello"))

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	last := msgs[2]
	assert.Equal(t, models.RoleAssistant, last.Role)
	assert.True(t, last.IsError)
	assert.Equal(t, "Error: Internal server error: Request failed with status code 401. Please try again or check the logs for details.", last.Content)
	assert.False(t, c.Loading())
	assert.False(t, c.Complete())

	stored := storedHistory(t, store)
	assert.True(t, stored[2].IsError)
}

func TestSend_RejectedWhileLoading(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	sender := &stubSender{reply: func(call int, _ []models.Message) (*models.Message, error) {
		if call == 1 {
			close(entered)
			<-release
		}
		return &models.Message{Role: models.RoleAssistant, Content: "done"}, nil
	}}
	c := openConversation(t, sender, NewMemoryStore())

	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background(), "first") }()

	<-entered
	assert.True(t, c.Loading())
	assert.ErrorIs(t, c.Send(context.Background(), "second"), ErrBusy)
	_, err := c.Clear(context.Background(), func() bool { return true })
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)

	assert.False(t, c.Loading())
	assert.Len(t, c.Messages(), 3)
	assert.Len(t, sender.Calls(), 1)
}

func TestSend_SummaryStartsAtFourMessages(t *testing.T) {
	sender := &stubSender{reply: func(call int, _ []models.Message) (*models.Message, error) {
		if call == 3 {
			return nil, errors.New("summary unavailable")
		}
		return &models.Message{Role: models.RoleAssistant, Content: "next question"}, nil
	}}
	c := openConversation(t, sender, NewMemoryStore())

	require.NoError(t, c.Send(context.Background(), "first"))
	c.tasks.Wait()
	assert.Len(t, sender.Calls(), 1, "three messages do not trigger a summary")

	require.NoError(t, c.Send(context.Background(), "second"))
	c.tasks.Wait()

	calls := sender.Calls()
	require.Len(t, calls, 3)
	summary := calls[2]
	require.Len(t, summary, 6)
	assert.Equal(t, models.Message{Role: models.RoleUser, Content: SummaryPrompt}, summary[5])

	// The failed summary never shows up in the visible history.
	msgs := c.Messages()
	assert.Len(t, msgs, 5)
	for _, m := range msgs {
		assert.NotEqual(t, SummaryPrompt, m.Content)
		assert.False(t, m.IsError)
	}
}

func TestCompletion_LatchesUntilClear(t *testing.T) {
	replies := []string{"Tell me more", "# PRD\n\n## Overview\nA todo app", "Anything else?"}
	sender := &stubSender{reply: func(call int, messages []models.Message) (*models.Message, error) {
		if messages[len(messages)-1].Content == SummaryPrompt {
			return &models.Message{Role: models.RoleAssistant, Content: "summary"}, nil
		}
		return &models.Message{Role: models.RoleAssistant, Content: replies[0]}, nil
	}}
	store := NewMemoryStore()
	c := openConversation(t, sender, store)

	require.NoError(t, c.Send(context.Background(), "idea"))
	assert.False(t, c.Complete())

	replies = replies[1:]
	require.NoError(t, c.Send(context.Background(), "go"))
	c.tasks.Wait()
	assert.True(t, c.Complete())
	assert.Equal(t, "# PRD\n\n## Overview\nA todo app", c.Document())

	replies = replies[1:]
	require.NoError(t, c.Send(context.Background(), "thanks"))
	c.tasks.Wait()
	assert.True(t, c.Complete(), "completion stays set after later replies")

	cleared, err := c.Clear(context.Background(), func() bool { return true })
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.False(t, c.Complete())
	assert.Empty(t, c.Document())
}

func TestCompletion_MarkerMustBePrefix(t *testing.T) {
	c := openConversation(t, &stubSender{reply: replyWith("Here is your # PRD")}, NewMemoryStore())

	require.NoError(t, c.Send(context.Background(), "idea"))
	assert.False(t, c.Complete())
}

func TestClear(t *testing.T) {
	store := NewMemoryStore()
	c := openConversation(t, &stubSender{}, store)
	require.NoError(t, c.Send(context.Background(), "idea"))

	cleared, err := c.Clear(context.Background(), func() bool { return false })
	require.NoError(t, err)
	assert.False(t, cleared)
	assert.Len(t, c.Messages(), 3)

	cleared, err = c.Clear(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, cleared, "no confirmation means no clear")

	cleared, err = c.Clear(context.Background(), func() bool { return true })
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Equal(t, Seed(), c.Messages())

	_, err = store.Load(context.Background(), StorageKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExport(t *testing.T) {
	doc := "# PRD\n\nA todo app\n"
	c := openConversation(t, &stubSender{reply: replyWith(doc)}, NewMemoryStore())

	var sb strings.Builder
	assert.ErrorIs(t, c.Export(&sb), ErrNotComplete)
	_, err := c.ExportFile(filepath.Join(t.TempDir(), "x.txt"))
	assert.ErrorIs(t, err, ErrNotComplete)

	require.NoError(t, c.Send(context.Background(), "idea"))

	require.NoError(t, c.Export(&sb))
	assert.Equal(t, doc, sb.String())

	path := filepath.Join(t.TempDir(), ExportFileName)
	written, err := c.ExportFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, string(data))
}
