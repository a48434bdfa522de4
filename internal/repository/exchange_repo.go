package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"flint/internal/models"
)

type ExchangeRepo struct {
	pool *pgxpool.Pool
}

func NewExchangeRepo(pool *pgxpool.Pool) *ExchangeRepo {
	return &ExchangeRepo{pool: pool}
}

// Record inserts e and fills in its CreatedAt.
func (r *ExchangeRepo) Record(ctx context.Context, e *models.Exchange) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	query := `INSERT INTO chat_exchanges
		(id, request_id, provider, model, message_count, status, reply, error_message, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		e.ID, e.RequestID, e.Provider, e.Model, e.MessageCount, e.Status, e.Reply, e.ErrorMessage, e.LatencyMS,
	).Scan(&e.CreatedAt)
}
