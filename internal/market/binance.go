package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	klinesPath = "/api/v3/klines"
	tickerPath = "/api/v3/ticker/24hr"
)

// BinanceOptions parameterise the Binance REST fetcher.
type BinanceOptions struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	RatePerMin int
}

// Binance fetches klines and 24hr ticker statistics from a Binance-style
// REST API. The futures host exposes the same shapes under /fapi/v1, so the
// full path prefix is derived from BaseURL.
type Binance struct {
	opts    BinanceOptions
	logger  zerolog.Logger
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewBinance constructs a REST fetcher.
func NewBinance(opts BinanceOptions, logger zerolog.Logger) *Binance {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}

	perMin := opts.RatePerMin
	if perMin <= 0 {
		perMin = 1200 // Binance REST weight budget
	}

	return &Binance{
		opts:    opts,
		logger:  logger.With().Str("component", "binance_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(perMin)/60.0), 10),
		baseURL: baseURL,
	}
}

// FetchKlines retrieves a batch of candles for the query.
func (b *Binance) FetchKlines(ctx context.Context, q KlineQuery) ([]Candle, error) {
	if q.Symbol == "" {
		return nil, errors.New("symbol required")
	}
	if q.Interval == "" {
		return nil, errors.New("interval required")
	}

	params := url.Values{}
	params.Set("symbol", q.Symbol)
	params.Set("interval", q.Interval)
	if !q.StartTime.IsZero() {
		params.Set("startTime", strconv.FormatInt(q.StartTime.UnixMilli(), 10))
	}
	if !q.EndTime.IsZero() {
		params.Set("endTime", strconv.FormatInt(q.EndTime.UnixMilli(), 10))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	payload, err := b.get(ctx, b.klinesURL()+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	candles := make([]Candle, 0, len(rows))
	for i, row := range rows {
		candle, err := parseKlineRow(row)
		if err != nil {
			return nil, fmt.Errorf("kline row %d: %w", i, err)
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// FetchTicker retrieves 24hr rolling statistics for one symbol.
func (b *Binance) FetchTicker(ctx context.Context, symbol string) (Ticker, error) {
	if symbol == "" {
		return Ticker{}, errors.New("symbol required")
	}

	params := url.Values{}
	params.Set("symbol", symbol)

	payload, err := b.get(ctx, b.tickerURL()+"?"+params.Encode())
	if err != nil {
		return Ticker{}, err
	}

	var raw struct {
		Symbol             string `json:"symbol"`
		LastPrice          string `json:"lastPrice"`
		PriceChange        string `json:"priceChange"`
		PriceChangePercent string `json:"priceChangePercent"`
		HighPrice          string `json:"highPrice"`
		LowPrice           string `json:"lowPrice"`
		OpenPrice          string `json:"openPrice"`
		Volume             string `json:"volume"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Ticker{}, fmt.Errorf("decode ticker: %w", err)
	}

	ticker := Ticker{Symbol: raw.Symbol}
	fields := []struct {
		name string
		src  string
		dst  *decimal.Decimal
	}{
		{"lastPrice", raw.LastPrice, &ticker.LastPrice},
		{"priceChange", raw.PriceChange, &ticker.PriceChange},
		{"priceChangePercent", raw.PriceChangePercent, &ticker.PriceChangePercent},
		{"highPrice", raw.HighPrice, &ticker.HighPrice},
		{"lowPrice", raw.LowPrice, &ticker.LowPrice},
		{"openPrice", raw.OpenPrice, &ticker.OpenPrice},
		{"volume", raw.Volume, &ticker.Volume},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return Ticker{}, fmt.Errorf("parse %s %q: %w", f.name, f.src, err)
		}
		*f.dst = d
	}

	return ticker, nil
}

func (b *Binance) klinesURL() string {
	if strings.Contains(b.baseURL, "fapi.") {
		return b.baseURL + "/fapi/v1/klines"
	}
	return b.baseURL + klinesPath
}

func (b *Binance) tickerURL() string {
	if strings.Contains(b.baseURL, "fapi.") {
		return b.baseURL + "/fapi/v1/ticker/24hr"
	}
	return b.baseURL + tickerPath
}

func (b *Binance) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(b.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "sessionwatch/1.0")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}

	return payload, nil
}

// parseKlineRow 解析单行 K 线数组:
// [openTime, open, high, low, close, volume, closeTime, ...]。
func parseKlineRow(row []json.RawMessage) (Candle, error) {
	if len(row) < 6 {
		return Candle{}, fmt.Errorf("expected at least 6 fields, got %d", len(row))
	}

	var openTimeMs int64
	if err := json.Unmarshal(row[0], &openTimeMs); err != nil {
		return Candle{}, fmt.Errorf("open time: %w", err)
	}

	values := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		var s string
		if err := json.Unmarshal(row[i], &s); err != nil {
			return Candle{}, fmt.Errorf("field %d: %w", i, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Candle{}, fmt.Errorf("field %d %q: %w", i, s, err)
		}
		values[i-1] = v
	}

	return Candle{
		OpenTime: time.UnixMilli(openTimeMs).UTC(),
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		Volume:   values[4],
	}, nil
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("%w: api error (%d): %s", ErrUnavailable, status, apiErr.Message)
	}
	if len(payload) > 0 {
		return fmt.Errorf("%w: api error (%d): %s", ErrUnavailable, status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("%w: api error (%d)", ErrUnavailable, status)
}

var _ Source = (*Binance)(nil)
