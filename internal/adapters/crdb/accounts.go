package crdb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/flightdesk/internal/domain"
)

func (r *Repository) GetOrCreate(ctx context.Context, seed domain.Account) (*domain.Account, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, name, wallet_balance) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, seed.ID, seed.Name, seed.WalletBalance)
	if err != nil {
		return nil, classify(err, "create account")
	}

	acc := domain.Account{ID: seed.ID}
	err = r.pool.QueryRow(ctx, `
		SELECT name, wallet_balance FROM accounts WHERE id = $1
	`, seed.ID).Scan(&acc.Name, &acc.WalletBalance)
	if err != nil {
		return nil, classify(err, "get account")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT pnr, COALESCE(flight_id, ''), airline, route, amount_paid, booked_at
		FROM bookings WHERE account_id = $1 ORDER BY seq
	`, seed.ID)
	if err != nil {
		return nil, classify(err, "list bookings")
	}
	acc.Bookings, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Booking, error) {
		var b domain.Booking
		err := row.Scan(&b.PNR, &b.FlightID, &b.Airline, &b.Route, &b.AmountPaid, &b.BookedAt)
		b.BookedAt = b.BookedAt.UTC()
		return b, err
	})
	if err != nil {
		return nil, classify(err, "scan bookings")
	}
	return &acc, nil
}

// Debit runs the conditional balance update, the booking insert and the
// outbox insert in one serializable transaction.
func (r *Repository) Debit(ctx context.Context, accountID string, b domain.Booking, rec domain.OutboxRecord) (int64, error) {
	var balance int64
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE accounts SET wallet_balance = wallet_balance - $2
			WHERE id = $1 AND wallet_balance >= $2
			RETURNING wallet_balance
		`, accountID, b.AmountPaid).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return errors.Wrapf(domain.ErrNotFound, "account %s", accountID)
			}
			return errors.WithStack(domain.ErrInsufficientFunds)
		}
		if err != nil {
			return err
		}

		var flightID *string
		if b.FlightID != "" {
			flightID = &b.FlightID
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO bookings (pnr, account_id, flight_id, airline, route, amount_paid, booked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, b.PNR, accountID, flightID, b.Airline, b.Route, b.AmountPaid, b.BookedAt.UTC())
		if err != nil {
			return err
		}
		return r.InsertOutbox(ctx, tx, rec)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
