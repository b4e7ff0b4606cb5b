package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	AggregateAccount    = "account"
	EventBookingCreated = "booking.created"
)

type OutboxRecord struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	DedupeKey     string
}

// BookingCreated is the payload published for every committed booking.
type BookingCreated struct {
	AccountID  string    `json:"account_id"`
	PNR        string    `json:"pnr"`
	FlightID   string    `json:"flight_id,omitempty"`
	Airline    string    `json:"airline"`
	Route      string    `json:"route"`
	AmountPaid int64     `json:"amount_paid"`
	BookedAt   time.Time `json:"booked_at"`
}

func NewBookingCreatedRecord(accountID string, b Booking) (OutboxRecord, error) {
	payload, err := json.Marshal(BookingCreated{
		AccountID:  accountID,
		PNR:        b.PNR,
		FlightID:   b.FlightID,
		Airline:    b.Airline,
		Route:      b.Route,
		AmountPaid: b.AmountPaid,
		BookedAt:   b.BookedAt,
	})
	if err != nil {
		return OutboxRecord{}, err
	}
	return OutboxRecord{
		ID:            uuid.New(),
		AggregateType: AggregateAccount,
		AggregateID:   accountID,
		EventType:     EventBookingCreated,
		Payload:       payload,
		CreatedAt:     b.BookedAt,
		DedupeKey:     b.PNR,
	}, nil
}
