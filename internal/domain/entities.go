package domain

import (
	"time"

	"github.com/google/uuid"
)

type Flight struct {
	ID            string
	Airline       string
	DepartureCity string
	ArrivalCity   string
	BasePrice     int64
}

// Route renders the flight the way bookings record it.
func (f Flight) Route() string {
	return f.DepartureCity + " -> " + f.ArrivalCity
}

type Attempt struct {
	ID        uuid.UUID
	FlightID  string
	CreatedAt time.Time
}

func NewAttempt(flightID string, now time.Time) Attempt {
	return Attempt{
		ID:        uuid.New(),
		FlightID:  flightID,
		CreatedAt: now,
	}
}

// PricedFlight is a catalog flight annotated with its current surge quote.
type PricedFlight struct {
	Flight
	Quote Quote
}

type Account struct {
	ID            string
	Name          string
	WalletBalance int64
	Bookings      []Booking
}

type Booking struct {
	PNR        string
	FlightID   string
	Airline    string
	Route      string
	AmountPaid int64
	BookedAt   time.Time
}
