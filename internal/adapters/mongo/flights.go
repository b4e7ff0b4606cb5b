package mongo

import (
	"context"
	"regexp"

	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FlightRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewFlightRepository(db *mongo.Database, logger observability.Logger) *FlightRepository {
	return &FlightRepository{
		coll:   db.Collection(flightsCollection),
		logger: logger,
	}
}

type FlightDoc struct {
	ID            string `bson:"_id"`
	FlightID      string `bson:"flight_id"`
	Airline       string `bson:"airline"`
	DepartureCity string `bson:"departure_city"`
	ArrivalCity   string `bson:"arrival_city"`
	BasePrice     int64  `bson:"base_price"`
}

func flightDoc(f domain.Flight) FlightDoc {
	return FlightDoc{
		ID:            f.ID,
		FlightID:      f.ID,
		Airline:       f.Airline,
		DepartureCity: f.DepartureCity,
		ArrivalCity:   f.ArrivalCity,
		BasePrice:     f.BasePrice,
	}
}

func (d FlightDoc) toDomain() domain.Flight {
	return domain.Flight{
		ID:            d.ID,
		Airline:       d.Airline,
		DepartureCity: d.DepartureCity,
		ArrivalCity:   d.ArrivalCity,
		BasePrice:     d.BasePrice,
	}
}

// Search matches from and to as literal, case-insensitive substrings of the
// departure and arrival city. Results keep natural order.
func (r *FlightRepository) Search(ctx context.Context, from, to string) ([]domain.Flight, error) {
	filter := bson.M{}
	if from != "" {
		filter["departure_city"] = containsFold(from)
	}
	if to != "" {
		filter["arrival_city"] = containsFold(to)
	}

	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		r.logger.WithError(err).Error("failed to search flights")
		return nil, classify(err, "find flights")
	}
	var docs []FlightDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify(err, "decode flights")
	}

	flights := make([]domain.Flight, 0, len(docs))
	for _, d := range docs {
		flights = append(flights, d.toDomain())
	}
	return flights, nil
}

func (r *FlightRepository) Get(ctx context.Context, id string) (*domain.Flight, error) {
	var doc FlightDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, classify(err, "get flight "+id)
	}
	f := doc.toDomain()
	return &f, nil
}

// Seed inserts flights that are not present yet, in order. With reset the
// collection is emptied first. It returns the number of inserted flights.
func (r *FlightRepository) Seed(ctx context.Context, flights []domain.Flight, reset bool) (int, error) {
	if reset {
		if _, err := r.coll.DeleteMany(ctx, bson.M{}); err != nil {
			return 0, classify(err, "reset flights")
		}
	}
	if len(flights) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, 0, len(flights))
	for _, f := range flights {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": f.ID}).
			SetUpdate(bson.M{"$setOnInsert": flightDoc(f)}).
			SetUpsert(true))
	}
	res, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return 0, classify(err, "seed flights")
	}
	return int(res.UpsertedCount), nil
}

func containsFold(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}
