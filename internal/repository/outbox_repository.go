package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/gamekeys/internal/db"
	"github.com/nikolayk812/gamekeys/internal/outbox"
)

type outboxRepository struct {
	q          *db.Queries
	maxRetries int
}

// NewOutbox marks an event failed for good after maxRetries dispatch errors.
func NewOutbox(pool *pgxpool.Pool, maxRetries int) outbox.Store {
	return &outboxRepository{q: db.New(pool), maxRetries: maxRetries}
}

func (r *outboxRepository) Claim(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	rows, err := r.q.ClaimOutboxEvents(ctx, db.ClaimOutboxEventsParams{
		RelayID:      relayID,
		LeaseSeconds: lease.Seconds(),
		BatchSize:    int32(batchSize),
	})
	if err != nil {
		return nil, fmt.Errorf("q.ClaimOutboxEvents: %w", err)
	}

	events := make([]outbox.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, outbox.Event{
			ID:            row.ID,
			AggregateType: row.AggregateType,
			AggregateID:   row.AggregateID,
			Type:          row.EventType,
			Payload:       row.Payload,
			CreatedAt:     row.CreatedAt,
		})
	}

	return events, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, relayID string, ids []int64) error {
	rowsAffected, err := r.q.MarkOutboxEventsSent(ctx, db.MarkOutboxEventsSentParams{
		Ids:     ids,
		RelayID: relayID,
	})
	if err != nil {
		return fmt.Errorf("q.MarkOutboxEventsSent: %w", err)
	}

	if rowsAffected != int64(len(ids)) {
		return fmt.Errorf("marked %d of %d events sent, lease lost", rowsAffected, len(ids))
	}

	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, relayID string, id int64, errMsg string) error {
	rowsAffected, err := r.q.MarkOutboxEventFailed(ctx, db.MarkOutboxEventFailedParams{
		MaxRetries: int32(r.maxRetries),
		LastError:  pgtype.Text{String: errMsg, Valid: true},
		ID:         id,
		RelayID:    relayID,
	})
	if err != nil {
		return fmt.Errorf("q.MarkOutboxEventFailed: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("event[%d] not held by %s, lease lost", id, relayID)
	}

	return nil
}
