package market

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Reference prices used when the feed is down and no override is configured.
var defaultBasePrices = map[string]float64{
	"BTCUSDT":   43000,
	"ETHUSDT":   2500,
	"BNBUSDT":   300,
	"SOLUSDT":   100,
	"XRPUSDT":   0.6,
	"ADAUSDT":   0.5,
	"DOGEUSDT":  0.08,
	"MATICUSDT": 0.9,
}

// SyntheticOptions parameterise the fallback generator.
type SyntheticOptions struct {
	// BasePrices overrides the per-symbol seed price.
	BasePrices map[string]float64
	// Volatility bounds the candle-to-candle jitter as a fraction of the
	// base price. Zero means the default 2%.
	Volatility float64
	// Seed fixes the random source. Zero seeds from the symbol name so a
	// given symbol always regenerates the same series.
	Seed int64
	// Now supplies the batch end time; nil means time.Now.
	Now func() time.Time
}

// Synthetic generates plausible candle batches when the live feed is
// unreachable. Generated candles always satisfy high >= max(open, close) and
// low <= min(open, close) with monotonically increasing timestamps.
type Synthetic struct {
	opts   SyntheticOptions
	logger zerolog.Logger

	mu sync.Mutex
}

// NewSynthetic constructs a fallback source.
func NewSynthetic(opts SyntheticOptions, logger zerolog.Logger) *Synthetic {
	if opts.Volatility <= 0 {
		opts.Volatility = 0.02
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Synthetic{
		opts:   opts,
		logger: logger.With().Str("component", "synthetic_fetcher").Logger(),
	}
}

// FetchKlines fabricates a batch matching the query shape.
func (s *Synthetic) FetchKlines(_ context.Context, q KlineQuery) ([]Candle, error) {
	count := q.Limit
	if count <= 0 {
		count = 30
	}

	step := intervalDuration(q.Interval)
	end := s.opts.Now().UTC().Truncate(step)
	if !q.EndTime.IsZero() {
		end = q.EndTime.UTC().Truncate(step)
	}
	start := end.Add(-time.Duration(count-1) * step)
	if !q.StartTime.IsZero() && q.StartTime.UTC().After(start) {
		start = q.StartTime.UTC().Truncate(step)
		count = int(end.Sub(start)/step) + 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rng := s.rng(q.Symbol)
	base := s.basePrice(q.Symbol)
	vol := s.opts.Volatility

	candles := make([]Candle, 0, count)
	ts := start
	for i := 0; i < count; i++ {
		open := base + (rng.Float64()-0.5)*base*vol
		close := open + (rng.Float64()-0.5)*open*vol
		high := math.Max(open, close) + rng.Float64()*open*vol/2
		low := math.Min(open, close) - rng.Float64()*open*vol/2
		volume := rng.Float64()*1000 + 100

		candles = append(candles, Candle{
			OpenTime: ts,
			Open:     open,
			High:     high,
			Low:      low,
			Close:    close,
			Volume:   volume,
		})
		ts = ts.Add(step)
		base = close
	}

	s.logger.Debug().Str("symbol", q.Symbol).Int("count", len(candles)).Msg("generated fallback candles")
	return candles, nil
}

// FetchTicker fabricates 24hr statistics around the seed price.
func (s *Synthetic) FetchTicker(_ context.Context, symbol string) (Ticker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rng := s.rng(symbol)
	base := s.basePrice(symbol)
	vol := s.opts.Volatility

	open := base * (1 + (rng.Float64()-0.5)*vol)
	last := open * (1 + (rng.Float64()-0.5)*vol)
	change := last - open
	changePct := 0.0
	if open != 0 {
		changePct = change / open * 100
	}

	return Ticker{
		Symbol:             symbol,
		LastPrice:          decimal.NewFromFloat(last).Round(8),
		PriceChange:        decimal.NewFromFloat(change).Round(8),
		PriceChangePercent: decimal.NewFromFloat(changePct).Round(3),
		HighPrice:          decimal.NewFromFloat(math.Max(open, last) * (1 + vol/2)).Round(8),
		LowPrice:           decimal.NewFromFloat(math.Min(open, last) * (1 - vol/2)).Round(8),
		OpenPrice:          decimal.NewFromFloat(open).Round(8),
		Volume:             decimal.NewFromFloat(rng.Float64()*5000 + 500).Round(3),
	}, nil
}

func (s *Synthetic) basePrice(symbol string) float64 {
	if p, ok := s.opts.BasePrices[symbol]; ok && p > 0 {
		return p
	}
	if p, ok := defaultBasePrices[symbol]; ok {
		return p
	}
	return 100
}

func (s *Synthetic) rng(symbol string) *rand.Rand {
	seed := s.opts.Seed
	if seed == 0 {
		h := fnv.New64a()
		_, _ = h.Write([]byte(symbol))
		seed = int64(h.Sum64())
	}
	return rand.New(rand.NewSource(seed))
}

// intervalDuration 把 Binance 风格的 interval 字符串换算为时长, 未知值按 1h 处理。
func intervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h", "":
		return time.Hour
	case "2h":
		return 2 * time.Hour
	case "4h":
		return 4 * time.Hour
	case "6h":
		return 6 * time.Hour
	case "12h":
		return 12 * time.Hour
	case "1d":
		return 24 * time.Hour
	case "1w":
		return 7 * 24 * time.Hour
	case "1M":
		return 30 * 24 * time.Hour
	default:
		return time.Hour
	}
}

var _ Source = (*Synthetic)(nil)
