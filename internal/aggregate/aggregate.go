package aggregate

import (
	"math"
	"sort"
	"time"

	"sessionwatch/internal/market"
	"sessionwatch/internal/session"
)

// Range is a running high/low pair. A zero pair means no candle fell in the
// window and renders as "no data" downstream.
type Range struct {
	High float64
	Low  float64
}

// DayBucket aggregates one calendar date: the extrema of every configured
// session plus the full-day extrema across all candles of that date.
type DayBucket struct {
	// Date is midnight of the calendar date in the reference location.
	Date     time.Time
	Weekday  string
	Sessions map[string]Range
	Daily    Range
}

// accumulator tracks extrema with infinity sentinels during the fold. The
// sentinels never leave this package.
type accumulator struct {
	high float64
	low  float64
}

func newAccumulator() accumulator {
	return accumulator{high: math.Inf(-1), low: math.Inf(1)}
}

func (a *accumulator) observe(high, low float64) {
	a.high = math.Max(a.high, high)
	a.low = math.Min(a.low, low)
}

func (a accumulator) finish() Range {
	r := Range{High: a.high, Low: a.low}
	if math.IsInf(r.High, -1) {
		r.High = 0
	}
	if math.IsInf(r.Low, 1) {
		r.Low = 0
	}
	return r
}

// Aggregate folds an unordered candle batch into per-date buckets. It is
// pure and idempotent: the same batch always yields the same result
// regardless of input order. Candles are dated and classified in loc.
// Output is sorted descending by date, most recent first.
func Aggregate(candles []market.Candle, sessions []session.Session, loc *time.Location) []DayBucket {
	type dayAcc struct {
		date     time.Time
		sessions map[string]*accumulator
		daily    accumulator
	}

	days := make(map[string]*dayAcc)
	for _, c := range candles {
		local := c.OpenTime.In(loc)
		key := local.Format("2006-01-02")

		acc, ok := days[key]
		if !ok {
			acc = &dayAcc{
				date:     time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc),
				sessions: make(map[string]*accumulator, len(sessions)),
				daily:    newAccumulator(),
			}
			for _, s := range sessions {
				sa := newAccumulator()
				acc.sessions[s.Name] = &sa
			}
			days[key] = acc
		}

		acc.daily.observe(c.High, c.Low)
		for _, name := range session.Classify(c.OpenTime, sessions, loc) {
			acc.sessions[name].observe(c.High, c.Low)
		}
	}

	buckets := make([]DayBucket, 0, len(days))
	for _, acc := range days {
		bucket := DayBucket{
			Date:     acc.date,
			Weekday:  acc.date.Weekday().String(),
			Sessions: make(map[string]Range, len(acc.sessions)),
			Daily:    acc.daily.finish(),
		}
		for name, sa := range acc.sessions {
			bucket.Sessions[name] = sa.finish()
		}
		buckets = append(buckets, bucket)
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Date.After(buckets[j].Date)
	})
	return buckets
}
