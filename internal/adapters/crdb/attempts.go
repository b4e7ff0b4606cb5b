package crdb

import (
	"context"
	"time"

	"github.com/robertarktes/flightdesk/internal/domain"
)

func (r *Repository) Record(ctx context.Context, attempt domain.Attempt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attempts (id, flight_id, created_at) VALUES ($1, $2, $3)
	`, attempt.ID, attempt.FlightID, attempt.CreatedAt.UTC())
	return classify(err, "record attempt")
}

// CountFor counts attempts on flightID at or after since; zero since counts all.
func (r *Repository) CountFor(ctx context.Context, flightID string, since time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM attempts
		WHERE flight_id = $1 AND ($2::TIMESTAMPTZ IS NULL OR created_at >= $2)
	`, flightID, nullableTime(since)).Scan(&n)
	if err != nil {
		return 0, classify(err, "count attempts")
	}
	return n, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
