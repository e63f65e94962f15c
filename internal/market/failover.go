package market

import (
	"context"

	"github.com/rs/zerolog"
)

// Failover serves from the live source and substitutes synthetic data when
// it fails. Feed errors never propagate to callers; substitution is logged
// at warn so outages stay visible.
type Failover struct {
	live     Source
	fallback Source
	logger   zerolog.Logger
}

// NewFailover composes a live source with a fallback.
func NewFailover(live, fallback Source, logger zerolog.Logger) *Failover {
	return &Failover{
		live:     live,
		fallback: fallback,
		logger:   logger.With().Str("component", "failover").Logger(),
	}
}

// FetchKlines returns live candles, or synthetic ones if the feed fails.
func (f *Failover) FetchKlines(ctx context.Context, q KlineQuery) ([]Candle, error) {
	candles, err := f.live.FetchKlines(ctx, q)
	if err == nil {
		return candles, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.logger.Warn().Err(err).Str("symbol", q.Symbol).Str("interval", q.Interval).
		Msg("live kline fetch failed, substituting synthetic data")
	return f.fallback.FetchKlines(ctx, q)
}

// FetchTicker returns the live ticker, or a synthetic one if the feed fails.
func (f *Failover) FetchTicker(ctx context.Context, symbol string) (Ticker, error) {
	ticker, err := f.live.FetchTicker(ctx, symbol)
	if err == nil {
		return ticker, nil
	}
	if ctx.Err() != nil {
		return Ticker{}, ctx.Err()
	}

	f.logger.Warn().Err(err).Str("symbol", symbol).
		Msg("live ticker fetch failed, substituting synthetic data")
	return f.fallback.FetchTicker(ctx, symbol)
}

var _ Source = (*Failover)(nil)
