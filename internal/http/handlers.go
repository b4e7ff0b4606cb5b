package http

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/service/assistant"
	"github.com/robertarktes/flightdesk/internal/service/booking"
	"github.com/robertarktes/flightdesk/internal/service/flights"
)

const maxBodyBytes = 1 << 16

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	flights  flights.FlightUseCase
	bookings booking.BookingUseCase
	chat     assistant.ChatUseCase
	store    Pinger
}

func NewHandlers(flights flights.FlightUseCase, bookings booking.BookingUseCase, chat assistant.ChatUseCase, store Pinger) *Handlers {
	return &Handlers{
		flights:  flights,
		bookings: bookings,
		chat:     chat,
		store:    store,
	}
}

func (h *Handlers) ListFlights(w http.ResponseWriter, r *http.Request) {
	query := flights.SearchQuery{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	priced, err := h.flights.Search(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]FlightResponse, 0, len(priced))
	for _, f := range priced {
		resp = append(resp, toFlightResponse(f))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) LogAttempt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.flights.LogAttempt(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	acc, err := h.bookings.Account(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(acc))
}

func (h *Handlers) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.bookings.Book(r.Context(), booking.BookInput{
		FlightID: req.FlightID,
		Airline:  req.Airline,
		Route:    req.Route,
		Price:    req.Price,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, BookResponse{
		Message:    "Success",
		Booking:    toBookingResponse(result.Booking),
		NewBalance: result.NewBalance,
	})
}

func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reply, err := h.chat.Reply(r.Context(), req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		LoggerFromContext(r.Context()).WithError(err).Warn("readiness check failed")
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: decodeErrorMessage(err)})
		return false
	}
	return true
}

// decodeErrorMessage names the offending field when a value has the wrong
// type, e.g. a fractional price.
func decodeErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return "invalid request body"
	}
	switch typeErr.Type.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		return "invalid " + typeErr.Field + ": must be a whole number"
	default:
		return "invalid " + typeErr.Field + ": must be a " + typeErr.Type.Kind().String()
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Unexpected errors are
// logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fareErr *domain.FareChangedError
	switch {
	case errors.As(err, &fareErr):
		current := fareErr.Current
		writeJSON(w, http.StatusConflict, ErrorResponse{Message: "fare changed, please review the new price", CurrentPrice: &current})
	case errors.Is(err, domain.ErrInsufficientFunds):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "insufficient wallet balance"})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Message: "not found"})
	case errors.Is(err, domain.ErrSerializationFailure), errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{Message: "conflict, try again"})
	case errors.Is(err, domain.ErrStorageUnavailable):
		LoggerFromContext(r.Context()).WithError(err).Error("storage unavailable")
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Message: "service temporarily unavailable"})
	default:
		LoggerFromContext(r.Context()).WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
	}
}
