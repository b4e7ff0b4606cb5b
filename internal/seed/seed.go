package seed

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flightdesk/internal/domain"
	"gopkg.in/yaml.v3"
)

// DefaultFlights is the catalog the API seeds on first start.
func DefaultFlights() []domain.Flight {
	return []domain.Flight{
		{ID: "AI-202", Airline: "Air India", DepartureCity: "Delhi", ArrivalCity: "Mumbai", BasePrice: 2500},
		{ID: "6E-501", Airline: "IndiGo", DepartureCity: "Mumbai", ArrivalCity: "Bangalore", BasePrice: 2200},
		{ID: "UK-812", Airline: "Vistara", DepartureCity: "Delhi", ArrivalCity: "Goa", BasePrice: 3000},
		{ID: "SG-105", Airline: "SpiceJet", DepartureCity: "Kolkata", ArrivalCity: "Delhi", BasePrice: 2400},
	}
}

type catalogFile struct {
	Flights []flightEntry `yaml:"flights"`
}

type flightEntry struct {
	ID            string `yaml:"flight_id"`
	Airline       string `yaml:"airline"`
	DepartureCity string `yaml:"departure_city"`
	ArrivalCity   string `yaml:"arrival_city"`
	BasePrice     int64  `yaml:"base_price"`
}

func LoadFile(path string) ([]domain.Flight, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog and validates every entry.
func Parse(data []byte) ([]domain.Flight, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	if len(file.Flights) == 0 {
		return nil, errors.Wrap(domain.ErrInvalidInput, "catalog has no flights")
	}

	seen := make(map[string]struct{}, len(file.Flights))
	flights := make([]domain.Flight, 0, len(file.Flights))
	for i, e := range file.Flights {
		f := domain.Flight{
			ID:            strings.TrimSpace(e.ID),
			Airline:       strings.TrimSpace(e.Airline),
			DepartureCity: strings.TrimSpace(e.DepartureCity),
			ArrivalCity:   strings.TrimSpace(e.ArrivalCity),
			BasePrice:     e.BasePrice,
		}
		switch {
		case f.ID == "":
			return nil, errors.Wrapf(domain.ErrInvalidInput, "flight %d: flight_id is required", i)
		case f.Airline == "" || f.DepartureCity == "" || f.ArrivalCity == "":
			return nil, errors.Wrapf(domain.ErrInvalidInput, "flight %s: airline and cities are required", f.ID)
		case f.BasePrice <= 0:
			return nil, errors.Wrapf(domain.ErrInvalidInput, "flight %s: base_price must be positive", f.ID)
		case f.BasePrice > domain.MaxBasePrice:
			return nil, errors.Wrapf(domain.ErrInvalidInput, "flight %s: base_price exceeds %d", f.ID, int64(domain.MaxBasePrice))
		}
		if _, dup := seen[f.ID]; dup {
			return nil, errors.Wrapf(domain.ErrInvalidInput, "flight %s listed twice", f.ID)
		}
		seen[f.ID] = struct{}{}
		flights = append(flights, f)
	}
	return flights, nil
}
