package aggregate

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"sessionwatch/internal/market"
	"sessionwatch/internal/session"
)

type candleSpec struct {
	HourOffset int
	Mid        float64
	Spread     float64
}

func (s candleSpec) candle() market.Candle {
	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	return market.Candle{
		OpenTime: base.Add(time.Duration(s.HourOffset) * time.Hour),
		Open:     s.Mid - s.Spread/2,
		High:     s.Mid + s.Spread,
		Low:      s.Mid - s.Spread,
		Close:    s.Mid + s.Spread/2,
		Volume:   1,
	}
}

func candleBatchGen() gopter.Gen {
	specGen := gen.Struct(reflect.TypeOf(candleSpec{}), map[string]gopter.Gen{
		"HourOffset": gen.IntRange(0, 5*24),
		"Mid":        gen.Float64Range(100, 50000),
		"Spread":     gen.Float64Range(0, 500),
	})
	return gen.SliceOf(specGen)
}

// Property: aggregation is a pure fold — reversing the input batch produces
// an identical bucket sequence.
func TestProperty_AggregateOrderIndependent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("shuffled input yields identical buckets", prop.ForAll(
		func(specs []candleSpec) bool {
			candles := make([]market.Candle, len(specs))
			reversed := make([]market.Candle, len(specs))
			for i, s := range specs {
				candles[i] = s.candle()
				reversed[len(specs)-1-i] = s.candle()
			}

			a := Aggregate(candles, session.Defaults(), time.UTC)
			b := Aggregate(reversed, session.Defaults(), time.UTC)
			return reflect.DeepEqual(a, b)
		},
		candleBatchGen(),
	))

	properties.TestingRun(t)
}

// Property: daily extrema always dominate session extrema — for every date
// the daily high is at least every populated session high, and the daily low
// is at most every populated session low.
func TestProperty_DailyDominatesSessions(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("daily extrema bound session extrema", prop.ForAll(
		func(specs []candleSpec) bool {
			candles := make([]market.Candle, len(specs))
			for i, s := range specs {
				candles[i] = s.candle()
			}

			for _, bucket := range Aggregate(candles, session.Defaults(), time.UTC) {
				for _, r := range bucket.Sessions {
					if r.High == 0 && r.Low == 0 {
						continue // no data in this window
					}
					if bucket.Daily.High < r.High {
						return false
					}
					if bucket.Daily.Low > r.Low {
						return false
					}
					if r.High < r.Low {
						return false
					}
				}
			}
			return true
		},
		candleBatchGen(),
	))

	properties.TestingRun(t)
}
