package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/observability"
	"github.com/robertarktes/flightdesk/internal/service/flights"
	"go.opentelemetry.io/otel"
)

// OfflineReply is served whenever the model cannot answer.
const OfflineReply = "Our travel assistant is offline right now. You can still search and book flights."

const maxMessageLength = 2000

const systemPrompt = `You are the travel assistant of a flight booking site.
Answer briefly and only about flights, fares, wallet balance and bookings.
Prices are in INR. A flight shows a surge price once it has drawn three or more booking attempts.
Only recommend flights from the catalog below.`

type ChatUseCase interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Generator produces a model reply for a system instruction and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type Catalog interface {
	Search(ctx context.Context, query flights.SearchQuery) ([]domain.PricedFlight, error)
}

type Assistant struct {
	generator Generator
	catalog   Catalog
	timeout   time.Duration
	logger    observability.Logger
}

// NewAssistant returns an assistant that always answers with OfflineReply
// when generator is nil.
func NewAssistant(generator Generator, catalog Catalog, timeout time.Duration, logger observability.Logger) *Assistant {
	return &Assistant{
		generator: generator,
		catalog:   catalog,
		timeout:   timeout,
		logger:    logger,
	}
}

// Reply rejects an empty message with ErrInvalidInput. Every other failure
// degrades to OfflineReply.
func (a *Assistant) Reply(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.Wrap(domain.ErrInvalidInput, "message is required")
	}
	if len(message) > maxMessageLength {
		return "", errors.Wrapf(domain.ErrInvalidInput, "message longer than %d bytes", maxMessageLength)
	}

	if a.generator == nil {
		observability.ChatFallbacks.WithLabelValues("disabled").Inc()
		return OfflineReply, nil
	}

	ctx, span := otel.Tracer("assistant").Start(ctx, "assistant.Reply")
	defer span.End()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	system := systemPrompt + "\n\n" + a.catalogContext(ctx)
	reply, err := a.generator.Generate(ctx, system, message)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		a.logger.WithError(err).WithField("reason", reason).Warn("chat completion failed, serving offline reply")
		observability.ChatFallbacks.WithLabelValues(reason).Inc()
		return OfflineReply, nil
	}
	return reply, nil
}

// catalogContext renders the current catalog and quotes for the model.
// A catalog failure leaves the model without context rather than failing the chat.
func (a *Assistant) catalogContext(ctx context.Context) string {
	if a.catalog == nil {
		return "Catalog: unavailable."
	}
	priced, err := a.catalog.Search(ctx, flights.SearchQuery{})
	if err != nil {
		a.logger.WithError(err).Warn("chat catalog lookup failed")
		return "Catalog: unavailable."
	}

	var sb strings.Builder
	sb.WriteString("Catalog:\n")
	for _, f := range priced {
		surge := ""
		if f.Quote.Surge {
			surge = " (surge)"
		}
		fmt.Fprintf(&sb, "- %s %s, %s, %d INR%s\n", f.ID, f.Airline, f.Route(), f.Quote.Price, surge)
	}
	return sb.String()
}

var _ ChatUseCase = (*Assistant)(nil)
