package crdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/flightdesk/internal/domain"
)

// Search matches from and to as literal, case-insensitive substrings. Rows
// come back in insertion order.
func (r *Repository) Search(ctx context.Context, from, to string) ([]domain.Flight, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, airline, departure_city, arrival_city, base_price
		FROM flights
		WHERE ($1 = '' OR departure_city ILIKE $2 ESCAPE '\')
		  AND ($3 = '' OR arrival_city ILIKE $4 ESCAPE '\')
		ORDER BY seq
	`, from, likeContains(from), to, likeContains(to))
	if err != nil {
		return nil, classify(err, "search flights")
	}
	flights, err := pgx.CollectRows(rows, scanFlight)
	if err != nil {
		return nil, classify(err, "scan flights")
	}
	return flights, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Flight, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, airline, departure_city, arrival_city, base_price
		FROM flights WHERE id = $1
	`, id)
	if err != nil {
		return nil, classify(err, "get flight "+id)
	}
	f, err := pgx.CollectExactlyOneRow(rows, scanFlight)
	if err != nil {
		return nil, classify(err, "get flight "+id)
	}
	return &f, nil
}

// Seed inserts flights that are not present yet; reset truncates first.
func (r *Repository) Seed(ctx context.Context, flights []domain.Flight, reset bool) (int, error) {
	inserted := 0
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		inserted = 0
		if reset {
			if _, err := tx.Exec(ctx, `DELETE FROM flights WHERE true`); err != nil {
				return err
			}
		}
		for _, f := range flights {
			tag, err := tx.Exec(ctx, `
				INSERT INTO flights (id, airline, departure_city, arrival_city, base_price)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO NOTHING
			`, f.ID, f.Airline, f.DepartureCity, f.ArrivalCity, f.BasePrice)
			if err != nil {
				return err
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func scanFlight(row pgx.CollectableRow) (domain.Flight, error) {
	var f domain.Flight
	err := row.Scan(&f.ID, &f.Airline, &f.DepartureCity, &f.ArrivalCity, &f.BasePrice)
	return f, err
}
