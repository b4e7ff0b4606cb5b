package domain

import "math"

const (
	// SurgeThreshold is the attempt count at which surge pricing kicks in.
	SurgeThreshold = 3
	// SurgeMarkupPercent is applied on top of the base price while surging.
	SurgeMarkupPercent = 10
	// MaxBasePrice keeps the surge arithmetic within int64.
	MaxBasePrice = (math.MaxInt64 - 50) / (100 + SurgeMarkupPercent)
)

type Quote struct {
	Price    int64
	Surge    bool
	Attempts int64
}

// EvaluateSurge derives the current price of a flight from its base price and
// the number of logged attempts. The markup is computed in integer arithmetic
// and rounded half-up to the nearest whole currency unit. basePrice must not
// exceed MaxBasePrice.
func EvaluateSurge(basePrice, attempts int64) Quote {
	if attempts < SurgeThreshold {
		return Quote{Price: basePrice, Attempts: attempts}
	}
	return Quote{
		Price:    (basePrice*(100+SurgeMarkupPercent) + 50) / 100,
		Surge:    true,
		Attempts: attempts,
	}
}
