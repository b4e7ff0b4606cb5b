package http

import (
	"time"

	"github.com/robertarktes/flightdesk/internal/domain"
)

type FlightResponse struct {
	ID            string `json:"_id"`
	FlightID      string `json:"flight_id"`
	Airline       string `json:"airline"`
	DepartureCity string `json:"departure_city"`
	ArrivalCity   string `json:"arrival_city"`
	BasePrice     int64  `json:"base_price"`
	CurrentPrice  int64  `json:"current_price"`
	IsSurge       bool   `json:"isSurge"`
	AttemptCount  int64  `json:"attempt_count"`
}

type BookingResponse struct {
	PNR        string    `json:"pnr"`
	FlightID   string    `json:"flightId,omitempty"`
	Airline    string    `json:"airline"`
	Route      string    `json:"route"`
	AmountPaid int64     `json:"amount_paid"`
	Date       time.Time `json:"date"`
}

type UserResponse struct {
	ID            string            `json:"_id"`
	Name          string            `json:"name"`
	WalletBalance int64             `json:"wallet_balance"`
	Bookings      []BookingResponse `json:"bookings"`
}

type BookRequest struct {
	FlightID string `json:"flightId"`
	Airline  string `json:"airline"`
	Route    string `json:"route"`
	Price    int64  `json:"price"`
}

type BookResponse struct {
	Message    string          `json:"message"`
	Booking    BookingResponse `json:"booking"`
	NewBalance int64           `json:"newBalance"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Message      string `json:"message"`
	CurrentPrice *int64 `json:"current_price,omitempty"`
}

func toFlightResponse(f domain.PricedFlight) FlightResponse {
	return FlightResponse{
		ID:            f.ID,
		FlightID:      f.ID,
		Airline:       f.Airline,
		DepartureCity: f.DepartureCity,
		ArrivalCity:   f.ArrivalCity,
		BasePrice:     f.BasePrice,
		CurrentPrice:  f.Quote.Price,
		IsSurge:       f.Quote.Surge,
		AttemptCount:  f.Quote.Attempts,
	}
}

func toBookingResponse(b domain.Booking) BookingResponse {
	return BookingResponse{
		PNR:        b.PNR,
		FlightID:   b.FlightID,
		Airline:    b.Airline,
		Route:      b.Route,
		AmountPaid: b.AmountPaid,
		Date:       b.BookedAt,
	}
}

func toUserResponse(acc *domain.Account) UserResponse {
	bookings := make([]BookingResponse, 0, len(acc.Bookings))
	for _, b := range acc.Bookings {
		bookings = append(bookings, toBookingResponse(b))
	}
	return UserResponse{
		ID:            acc.ID,
		Name:          acc.Name,
		WalletBalance: acc.WalletBalance,
		Bookings:      bookings,
	}
}
