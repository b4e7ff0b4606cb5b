package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AccountRepository stores the wallet, its bookings and the pending
// booking.created events in a single document, so one update covers all
// three.
type AccountRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAccountRepository(db *mongo.Database, logger observability.Logger) *AccountRepository {
	return &AccountRepository{
		coll:   db.Collection(accountsCollection),
		logger: logger,
	}
}

type AccountDoc struct {
	ID            string       `bson:"_id"`
	Name          string       `bson:"name"`
	WalletBalance int64        `bson:"wallet_balance"`
	Bookings      []BookingDoc `bson:"bookings"`
	PendingEvents []OutboxDoc  `bson:"pending_events,omitempty"`
}

type BookingDoc struct {
	PNR        string    `bson:"pnr"`
	FlightID   string    `bson:"flight_id,omitempty"`
	Airline    string    `bson:"airline"`
	Route      string    `bson:"route"`
	AmountPaid int64     `bson:"amount_paid"`
	Date       time.Time `bson:"date"`
}

type OutboxDoc struct {
	ID            string    `bson:"_id"`
	AggregateType string    `bson:"aggregate_type"`
	AggregateID   string    `bson:"aggregate_id"`
	EventType     string    `bson:"event_type"`
	Payload       []byte    `bson:"payload"`
	CreatedAt     time.Time `bson:"created_at"`
	DedupeKey     string    `bson:"dedupe_key"`
}

func (d AccountDoc) toDomain() *domain.Account {
	acc := &domain.Account{
		ID:            d.ID,
		Name:          d.Name,
		WalletBalance: d.WalletBalance,
		Bookings:      make([]domain.Booking, 0, len(d.Bookings)),
	}
	for _, b := range d.Bookings {
		acc.Bookings = append(acc.Bookings, domain.Booking{
			PNR:        b.PNR,
			FlightID:   b.FlightID,
			Airline:    b.Airline,
			Route:      b.Route,
			AmountPaid: b.AmountPaid,
			BookedAt:   b.Date,
		})
	}
	return acc
}

func (d OutboxDoc) toDomain() (domain.OutboxRecord, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.OutboxRecord{}, errors.Wrapf(err, "outbox id %q", d.ID)
	}
	return domain.OutboxRecord{
		ID:            id,
		AggregateType: d.AggregateType,
		AggregateID:   d.AggregateID,
		EventType:     d.EventType,
		Payload:       d.Payload,
		CreatedAt:     d.CreatedAt,
		DedupeKey:     d.DedupeKey,
	}, nil
}

// GetOrCreate returns the account with seed.ID, inserting it with seed's
// name and balance when it does not exist yet.
func (r *AccountRepository) GetOrCreate(ctx context.Context, seed domain.Account) (*domain.Account, error) {
	update := bson.M{"$setOnInsert": bson.M{
		"name":           seed.Name,
		"wallet_balance": seed.WalletBalance,
		"bookings":       bson.A{},
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.M{"pending_events": 0})

	var doc AccountDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": seed.ID}, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// concurrent upsert won the insert; the document exists now
		err = r.coll.FindOne(ctx, bson.M{"_id": seed.ID}, options.FindOne().SetProjection(bson.M{"pending_events": 0})).Decode(&doc)
	}
	if err != nil {
		return nil, classify(err, "get or create account")
	}
	return doc.toDomain(), nil
}

// Debit decrements the balance, appends the booking and queues rec in one
// document update that only matches while wallet_balance >= AmountPaid.
func (r *AccountRepository) Debit(ctx context.Context, accountID string, b domain.Booking, rec domain.OutboxRecord) (int64, error) {
	filter := bson.M{
		"_id":            accountID,
		"wallet_balance": bson.M{"$gte": b.AmountPaid},
	}
	update := bson.M{
		"$inc": bson.M{"wallet_balance": -b.AmountPaid},
		"$push": bson.M{
			"bookings": BookingDoc{
				PNR:        b.PNR,
				FlightID:   b.FlightID,
				Airline:    b.Airline,
				Route:      b.Route,
				AmountPaid: b.AmountPaid,
				Date:       b.BookedAt.UTC(),
			},
			"pending_events": OutboxDoc{
				ID:            rec.ID.String(),
				AggregateType: rec.AggregateType,
				AggregateID:   rec.AggregateID,
				EventType:     rec.EventType,
				Payload:       rec.Payload,
				CreatedAt:     rec.CreatedAt.UTC(),
				DedupeKey:     rec.DedupeKey,
			},
		},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"wallet_balance": 1})

	var doc struct {
		WalletBalance int64 `bson:"wallet_balance"`
	}
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := r.coll.CountDocuments(ctx, bson.M{"_id": accountID})
		if cerr != nil {
			return 0, classify(cerr, "debit account")
		}
		if n == 0 {
			return 0, errors.Wrapf(domain.ErrNotFound, "account %s", accountID)
		}
		return 0, errors.WithStack(domain.ErrInsufficientFunds)
	}
	if err != nil {
		r.logger.WithError(err).WithField("account_id", accountID).Error("failed to debit account")
		return 0, classify(err, "debit account")
	}
	return doc.WalletBalance, nil
}

// Unpublished returns up to limit queued events across accounts, oldest first.
func (r *AccountRepository) Unpublished(ctx context.Context, limit int) ([]domain.OutboxRecord, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"pending_events.0": bson.M{"$exists": true}}}},
		{{Key: "$unwind", Value: bson.M{"path": "$pending_events", "includeArrayIndex": "pos"}}},
		{{Key: "$sort", Value: bson.D{{Key: "pending_events.created_at", Value: 1}, {Key: "_id", Value: 1}, {Key: "pos", Value: 1}}}},
		{{Key: "$replaceWith", Value: "$pending_events"}},
		{{Key: "$limit", Value: limit}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, classify(err, "list pending events")
	}
	var docs []OutboxDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify(err, "decode pending events")
	}

	records := make([]domain.OutboxRecord, 0, len(docs))
	for _, d := range docs {
		rec, err := d.toDomain()
		if err != nil {
			r.logger.WithError(err).Warn("skipping malformed pending event")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *AccountRepository) MarkPublished(ctx context.Context, rec domain.OutboxRecord, _ time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": rec.AggregateID},
		bson.M{"$pull": bson.M{"pending_events": bson.M{"_id": rec.ID.String()}}},
	)
	return classify(err, "mark event published")
}
