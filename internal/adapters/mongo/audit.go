package mongo

import (
	"context"
	"time"

	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection(auditCollection),
		logger: logger,
	}
}

// AuditLog is keyed by the event's dedupe key, so redelivered events are
// stored once.
type AuditLog struct {
	ID        string    `bson:"_id"`
	Action    string    `bson:"action"`
	AccountID string    `bson:"account_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) LogEvent(ctx context.Context, key, action, accountID string, at time.Time, data map[string]interface{}) error {
	_, err := a.coll.InsertOne(ctx, AuditLog{
		ID:        key,
		Action:    action,
		AccountID: accountID,
		Timestamp: at.UTC(),
		Data:      bson.M(data),
	})
	if mongo.IsDuplicateKeyError(err) {
		a.logger.WithField("key", key).Debug("audit entry already recorded")
		return nil
	}
	if err != nil {
		a.logger.WithError(err).Error("failed to insert audit log")
		return classify(err, "insert audit log")
	}
	return nil
}

func (a *AuditLogger) LogBooking(ctx context.Context, ev domain.BookingCreated) error {
	data := map[string]interface{}{
		"pnr":         ev.PNR,
		"flight_id":   ev.FlightID,
		"airline":     ev.Airline,
		"route":       ev.Route,
		"amount_paid": ev.AmountPaid,
	}
	return a.LogEvent(ctx, ev.PNR, domain.EventBookingCreated, ev.AccountID, ev.BookedAt, data)
}

// Bookings returns the audit trail of one account, oldest first.
func (a *AuditLogger) Bookings(ctx context.Context, accountID string) ([]AuditLog, error) {
	cur, err := a.coll.Find(ctx,
		bson.M{"account_id": accountID, "action": domain.EventBookingCreated},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}),
	)
	if err != nil {
		return nil, classify(err, "find audit logs")
	}
	var logs []AuditLog
	if err := cur.All(ctx, &logs); err != nil {
		return nil, classify(err, "decode audit logs")
	}
	return logs, nil
}
