package crdb

import (
	"context"
	_ "embed"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/observability"
)

const (
	SerializationFailureCode = "40001"
	UniqueViolationCode      = "23505"
	CheckViolationCode       = "23514"
)

//go:embed schema.sql
var schema string

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Mark(errors.Wrap(err, "ping"), domain.ErrStorageUnavailable)
	}
	return pool, nil
}

// EnsureSchema creates the tables if they are missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return classify(err, "ensure schema")
}

func (r *Repository) Ping(ctx context.Context) error {
	return classify(r.pool.Ping(ctx), "ping")
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return classify(err, "begin")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return classify(err, "set isolation")
	}

	if err := fn(tx); err != nil {
		return classify(err, "tx")
	}

	return classify(tx.Commit(ctx), "commit")
}

// classify maps pgx errors onto domain sentinels. Errors that already carry
// a domain sentinel pass through unchanged.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		domain.ErrNotFound, domain.ErrInsufficientFunds, domain.ErrConflict,
		domain.ErrSerializationFailure, domain.ErrStorageUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrap(domain.ErrNotFound, op)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case SerializationFailureCode:
			return errors.Mark(errors.Wrap(err, op), domain.ErrSerializationFailure)
		case UniqueViolationCode:
			return errors.Mark(errors.Wrap(err, op), domain.ErrConflict)
		case CheckViolationCode:
			return errors.Mark(errors.Wrap(err, op), domain.ErrInsufficientFunds)
		}
		return errors.Wrap(err, op)
	}
	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Mark(errors.Wrap(err, op), domain.ErrStorageUnavailable)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.SafeToRetry(err) {
		return errors.Mark(errors.Wrap(err, op), domain.ErrStorageUnavailable)
	}
	return errors.Wrap(err, op)
}

// likeContains builds an ILIKE pattern that matches s literally.
func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
