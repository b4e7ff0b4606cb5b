package assistant

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/observability"
	"github.com/robertarktes/flightdesk/internal/service/flights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Search(ctx context.Context, query flights.SearchQuery) ([]domain.PricedFlight, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PricedFlight), args.Error(1)
}

var pricedCatalog = []domain.PricedFlight{
	{
		Flight: domain.Flight{ID: "UK-812", Airline: "Vistara", DepartureCity: "Delhi", ArrivalCity: "Goa", BasePrice: 3000},
		Quote:  domain.Quote{Price: 3300, Surge: true, Attempts: 4},
	},
}

func TestAssistant_Reply_PassesCatalogContext(t *testing.T) {
	gen := &MockGenerator{}
	catalog := &MockCatalog{}
	catalog.On("Search", mock.Anything, flights.SearchQuery{}).Return(pricedCatalog, nil).Once()
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(system string) bool {
		return strings.Contains(system, "UK-812 Vistara, Delhi -> Goa, 3300 INR (surge)")
	}), "any flights to Goa?").Return("UK-812 flies Delhi to Goa.", nil).Once()

	a := NewAssistant(gen, catalog, time.Second, observability.NewNopLogger())
	reply, err := a.Reply(context.Background(), "  any flights to Goa?  ")
	require.NoError(t, err)
	assert.Equal(t, "UK-812 flies Delhi to Goa.", reply)
	gen.AssertExpectations(t)
}

func TestAssistant_Reply_Disabled(t *testing.T) {
	a := NewAssistant(nil, &MockCatalog{}, time.Second, observability.NewNopLogger())
	reply, err := a.Reply(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, OfflineReply, reply)
}

func TestAssistant_Reply_GeneratorFailureDegrades(t *testing.T) {
	gen := &MockGenerator{}
	catalog := &MockCatalog{}
	catalog.On("Search", mock.Anything, mock.Anything).Return(pricedCatalog, nil)
	gen.On("Generate", mock.Anything, mock.Anything, "hello").
		Return("", errors.Mark(errors.New("HTTP 500"), domain.ErrExternalServiceUnavailable)).Once()

	a := NewAssistant(gen, catalog, time.Second, observability.NewNopLogger())
	reply, err := a.Reply(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, OfflineReply, reply)
}

func TestAssistant_Reply_CatalogFailureStillAnswers(t *testing.T) {
	gen := &MockGenerator{}
	catalog := &MockCatalog{}
	catalog.On("Search", mock.Anything, mock.Anything).Return(nil, domain.ErrStorageUnavailable).Once()
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(system string) bool {
		return strings.Contains(system, "Catalog: unavailable.")
	}), "hello").Return("Hi there.", nil).Once()

	a := NewAssistant(gen, catalog, time.Second, observability.NewNopLogger())
	reply, err := a.Reply(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there.", reply)
}

func TestAssistant_Reply_EmptyMessage(t *testing.T) {
	a := NewAssistant(&MockGenerator{}, &MockCatalog{}, time.Second, observability.NewNopLogger())
	_, err := a.Reply(context.Background(), "   ")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = a.Reply(context.Background(), strings.Repeat("a", maxMessageLength+1))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
