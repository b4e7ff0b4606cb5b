package crdb

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/flightdesk/internal/domain"
)

func (r *Repository) InsertOutbox(ctx context.Context, tx pgx.Tx, record domain.OutboxRecord) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload_json, created_at, status, dedupe_key)
		VALUES ($1, $2, $3, $4, $5, $6, 'NEW', $7)
	`, record.ID, record.AggregateType, record.AggregateID, record.EventType, string(record.Payload), record.CreatedAt.UTC(), record.DedupeKey)
	return err
}

// Unpublished returns up to limit NEW records, oldest first.
func (r *Repository) Unpublished(ctx context.Context, limit int) ([]domain.OutboxRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload_json::STRING, created_at, dedupe_key
		FROM outbox WHERE status = 'NEW' ORDER BY created_at ASC LIMIT $1
	`, limit)
	if err != nil {
		return nil, classify(err, "list outbox")
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OutboxRecord, error) {
		var rec domain.OutboxRecord
		var payload string
		err := row.Scan(&rec.ID, &rec.AggregateType, &rec.AggregateID, &rec.EventType, &payload, &rec.CreatedAt, &rec.DedupeKey)
		rec.Payload = []byte(payload)
		return rec, err
	})
	if err != nil {
		return nil, classify(err, "scan outbox")
	}
	return records, nil
}

func (r *Repository) MarkPublished(ctx context.Context, rec domain.OutboxRecord, publishedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox SET status = 'PUBLISHED', published_at = $2 WHERE id = $1
	`, rec.ID, publishedAt.UTC())
	return classify(err, "mark published")
}
