package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flightdesk/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	flightsCollection  = "flights"
	attemptsCollection = "attempts"
	accountsCollection = "users"
	auditCollection    = "audit_logs"
)

// Connect dials uri and verifies the deployment answers a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, classify(err, "connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, classify(err, "ping")
	}
	return client, nil
}

// EnsureIndexes creates the secondary indexes every collection relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(attemptsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "flight_id", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("flight_created"),
	})
	if err != nil {
		return classify(err, "create attempts index")
	}
	_, err = db.Collection(auditCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "timestamp", Value: 1}},
		Options: options.Index().SetName("account_timestamp"),
	})
	if err != nil {
		return classify(err, "create audit index")
	}
	return nil
}

// Pinger backs /readyz.
type Pinger struct {
	client *mongo.Client
}

func NewPinger(client *mongo.Client) *Pinger {
	return &Pinger{client: client}
}

func (p *Pinger) Ping(ctx context.Context) error {
	return classify(p.client.Ping(ctx, nil), "ping")
}

// classify maps driver errors onto domain sentinels. Unreachable or slow
// deployments become ErrStorageUnavailable.
func classify(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return errors.Wrap(domain.ErrNotFound, op)
	case mongo.IsDuplicateKeyError(err):
		return errors.Mark(errors.Wrap(err, op), domain.ErrConflict)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, mongo.ErrClientDisconnected):
		return errors.Mark(errors.Wrap(err, op), domain.ErrStorageUnavailable)
	default:
		return errors.Wrap(err, op)
	}
}
