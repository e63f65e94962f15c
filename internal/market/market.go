package market

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnavailable marks a feed failure that callers are expected to recover
// from locally (a Failover source substitutes synthetic data instead of
// surfacing it).
var ErrUnavailable = errors.New("market: feed unavailable")

// Candle is one OHLCV sample for a fixed time interval. Values are taken
// as-is from the feed; a malformed candle (high < low) passes through
// unvalidated.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Ticker carries 24hr rolling statistics for one symbol. Prices keep the
// wire representation via decimal to avoid re-rounding before display.
type Ticker struct {
	Symbol             string
	LastPrice          decimal.Decimal
	PriceChange        decimal.Decimal
	PriceChangePercent decimal.Decimal
	HighPrice          decimal.Decimal
	LowPrice           decimal.Decimal
	OpenPrice          decimal.Decimal
	Volume             decimal.Decimal
}

// KlineQuery parameterises a batch candle request. Either the StartTime and
// EndTime pair or Limit is used; when both are zero the feed default applies.
type KlineQuery struct {
	Symbol    string
	Interval  string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

// CandleSource retrieves batches of candles.
type CandleSource interface {
	FetchKlines(ctx context.Context, q KlineQuery) ([]Candle, error)
}

// TickerSource retrieves scalar ticker statistics.
type TickerSource interface {
	FetchTicker(ctx context.Context, symbol string) (Ticker, error)
}

// Source 聚合行情数据源的两类只读查询。
type Source interface {
	CandleSource
	TickerSource
}
