package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"flint/internal/database"
	"flint/internal/models"
)

func TestExchangeRepo_Record(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	pool, err := database.NewPostgresPool(url)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(pool); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	repo := NewExchangeRepo(pool)
	ctx := context.Background()

	reply := "What problem does it solve?"
	e := &models.Exchange{
		RequestID:    "req-" + uuid.NewString(),
		Provider:     "openai",
		Model:        "gpt-4o-mini",
		MessageCount: 2,
		Status:       200,
		Reply:        &reply,
		LatencyMS:    42,
	}
	if err := repo.Record(ctx, e); err != nil {
		t.Fatalf("Record: %v", err)
	}
	defer pool.Exec(ctx, `DELETE FROM chat_exchanges WHERE id = $1`, e.ID)

	if e.ID == uuid.Nil {
		t.Error("expected an id to be assigned")
	}
	if e.CreatedAt.IsZero() {
		t.Error("expected created_at to be filled in")
	}

	var (
		requestID string
		status    int
		gotReply  *string
		errMsg    *string
	)
	err = pool.QueryRow(ctx,
		`SELECT request_id, status, reply, error_message FROM chat_exchanges WHERE id = $1`, e.ID,
	).Scan(&requestID, &status, &gotReply, &errMsg)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if requestID != e.RequestID || status != 200 {
		t.Errorf("got request_id=%q status=%d", requestID, status)
	}
	if gotReply == nil || *gotReply != reply {
		t.Errorf("reply = %v, want %q", gotReply, reply)
	}
	if errMsg != nil {
		t.Errorf("error_message = %q, want NULL", *errMsg)
	}
}
