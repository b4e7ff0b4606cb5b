package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFlights(t *testing.T) {
	flights := DefaultFlights()
	require.Len(t, flights, 4)
	assert.Equal(t, "AI-202", flights[0].ID)
	for _, f := range flights {
		assert.Positive(t, f.BasePrice)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
flights:
  - flight_id: AI-101
    airline: Air India
    departure_city: Mumbai
    arrival_city: Delhi
    base_price: 5000
  - flight_id: QP-505
    airline: Akasa Air
    departure_city: Kolkata
    arrival_city: Mumbai
    base_price: 4200
`), 0o600))

	flights, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Flight{
		{ID: "AI-101", Airline: "Air India", DepartureCity: "Mumbai", ArrivalCity: "Delhi", BasePrice: 5000},
		{ID: "QP-505", Airline: "Akasa Air", DepartureCity: "Kolkata", ArrivalCity: "Mumbai", BasePrice: 4200},
	}, flights)
}

func TestParse_Invalid(t *testing.T) {
	testCases := map[string]string{
		"empty":        `flights: []`,
		"missing id":   "flights:\n  - airline: X\n    departure_city: A\n    arrival_city: B\n    base_price: 1\n",
		"zero price":   "flights:\n  - flight_id: X-1\n    airline: X\n    departure_city: A\n    arrival_city: B\n    base_price: 0\n",
		"missing city": "flights:\n  - flight_id: X-1\n    airline: X\n    departure_city: A\n    base_price: 10\n",
		"huge price":   "flights:\n  - flight_id: X-1\n    airline: X\n    departure_city: A\n    arrival_city: B\n    base_price: 90000000000000000\n",
		"duplicate":    "flights:\n  - {flight_id: X-1, airline: X, departure_city: A, arrival_city: B, base_price: 1}\n  - {flight_id: X-1, airline: X, departure_city: A, arrival_city: B, base_price: 1}\n",
	}
	for name, doc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
		})
	}

	_, err := Parse([]byte("flights: [unterminated"))
	assert.Error(t, err)
}
