package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrSerializationFailure       = errors.New("serialization failure")
	ErrNotFound                   = errors.New("not found")
	ErrConflict                   = errors.New("conflict")
	ErrInvalidInput               = errors.New("invalid input")
	ErrInsufficientFunds          = errors.New("insufficient balance")
	ErrStorageUnavailable         = errors.New("storage unavailable")
	ErrExternalServiceUnavailable = errors.New("external service unavailable")
	ErrFareChanged                = errors.New("fare changed")
)

// FareChangedError is returned when a booking quotes a price that no longer
// matches the flight's current fare.
type FareChangedError struct {
	FlightID string
	Quoted   int64
	Current  int64
}

func (e *FareChangedError) Error() string {
	return fmt.Sprintf("fare changed for flight %s: quoted %d, current %d", e.FlightID, e.Quoted, e.Current)
}

func (e *FareChangedError) Is(target error) bool {
	return target == ErrFareChanged
}
