package mongo

import (
	"context"
	"time"

	"github.com/robertarktes/flightdesk/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type AttemptRepository struct {
	coll *mongo.Collection
}

func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{coll: db.Collection(attemptsCollection)}
}

type AttemptDoc struct {
	ID        string    `bson:"_id"`
	FlightID  string    `bson:"flight_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *AttemptRepository) Record(ctx context.Context, attempt domain.Attempt) error {
	_, err := r.coll.InsertOne(ctx, AttemptDoc{
		ID:        attempt.ID.String(),
		FlightID:  attempt.FlightID,
		CreatedAt: attempt.CreatedAt.UTC(),
	})
	return classify(err, "record attempt")
}

// CountFor counts attempts on flightID created at or after since. A zero
// since counts all of them.
func (r *AttemptRepository) CountFor(ctx context.Context, flightID string, since time.Time) (int64, error) {
	filter := bson.M{"flight_id": flightID}
	if !since.IsZero() {
		filter["created_at"] = bson.M{"$gte": since.UTC()}
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, classify(err, "count attempts")
	}
	return n, nil
}
