package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sessionwatch/internal/aggregate"
	"sessionwatch/internal/alert"
	"sessionwatch/internal/config"
	"sessionwatch/internal/market"
	"sessionwatch/internal/notify"
	"sessionwatch/internal/scheduler"
	"sessionwatch/internal/session"
)

// Snapshot is the last completed aggregation result for one query. Writes
// are last-write-wins; a response whose query no longer matches the
// service's current parameters is discarded as stale.
type Snapshot struct {
	Query     market.KlineQuery
	Buckets   []aggregate.DayBucket
	UpdatedAt time.Time
}

// Service orchestrates the three polling loops: ticker price (fast), recent
// candles (medium), and the monthly futures history (slow). Aggregation is
// a full recompute per batch; only the alert evaluator carries incremental
// state.
type Service struct {
	spot     market.Source
	futures  market.CandleSource
	store    *alert.Store
	eval     *alert.Evaluator
	notifier notify.Notifier
	sessions []session.Session
	loc      *time.Location
	logger   zerolog.Logger

	symbol          string
	interval        string
	limit           int
	priceInterval   time.Duration
	candleInterval  time.Duration
	historyInterval time.Duration
	startupDelay    time.Duration
	alertsOn        bool

	mu       sync.Mutex
	intraday Snapshot
	monthly  Snapshot
	ticker   market.Ticker
	tickerAt time.Time

	now func() time.Time
}

// New constructs the polling service.
func New(cfg *config.Config, spot market.Source, futures market.CandleSource, store *alert.Store, eval *alert.Evaluator, notifier notify.Notifier, logger zerolog.Logger) *Service {
	sessions := make([]session.Session, 0, len(cfg.Sessions))
	for _, s := range cfg.Sessions {
		sessions = append(sessions, session.Session{Name: s.Name, StartHour: s.StartHour, EndHour: s.EndHour})
	}
	if len(sessions) == 0 {
		sessions = session.Defaults()
	}

	return &Service{
		spot:            spot,
		futures:         futures,
		store:           store,
		eval:            eval,
		notifier:        notifier,
		sessions:        sessions,
		loc:             cfg.Location(),
		logger:          logger.With().Str("component", "service").Logger(),
		symbol:          cfg.Feed.Symbol,
		interval:        cfg.Feed.Interval,
		limit:           cfg.Feed.Limit,
		priceInterval:   cfg.Poller.PriceInterval,
		candleInterval:  cfg.Poller.CandleInterval,
		historyInterval: cfg.Poller.HistoryInterval,
		startupDelay:    cfg.Poller.StartupDelay,
		alertsOn:        cfg.Alerting.Enabled,
		now:             time.Now,
	}
}

// Run blocks until ctx is cancelled, driving the three schedulers. The
// loops are independent and may overlap; the aggregation paths are
// stateless so overlapping batches only race on the snapshot write.
func (s *Service) Run(ctx context.Context) error {
	loops := []struct {
		opts scheduler.Options
		tick scheduler.TickFunc
	}{
		{scheduler.Options{Name: "price", Interval: s.priceInterval, StartupDelay: s.startupDelay}, s.pollPrice},
		{scheduler.Options{Name: "candles", Interval: s.candleInterval, AlignToStart: true, StartupDelay: s.startupDelay}, s.pollCandles},
		{scheduler.Options{Name: "history", Interval: s.historyInterval, AlignToStart: true, StartupDelay: s.startupDelay}, s.pollHistory},
	}

	var wg sync.WaitGroup
	for _, loop := range loops {
		sched := scheduler.New(loop.opts, s.logger)
		tick := loop.tick
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sched.Run(ctx, tick)
		}()
	}
	wg.Wait()

	return ctx.Err()
}

// pollPrice fetches the ticker and runs the alert evaluator on the last
// price. One tick may fire several rules; each becomes one notification.
func (s *Service) pollPrice(ctx context.Context, now time.Time) error {
	ticker, err := s.spot.FetchTicker(ctx, s.symbol)
	if err != nil {
		return fmt.Errorf("fetch ticker: %w", err)
	}

	s.mu.Lock()
	s.ticker = ticker
	s.tickerAt = now
	s.mu.Unlock()

	if !s.alertsOn || s.eval == nil {
		return nil
	}

	price := ticker.LastPrice.InexactFloat64()
	for _, fired := range s.eval.Evaluate(price, now) {
		s.dispatch(ctx, fired)
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, fired alert.Fired) {
	s.logger.Info().
		Str("rule_id", fired.RuleID).
		Str("direction", fired.Direction.String()).
		Float64("target", fired.Target).
		Float64("price", fired.Price).
		Msg("alert fired")

	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, notify.NewEvent(s.symbol, fired)); err != nil {
		s.logger.Error().Err(err).Str("rule_id", fired.RuleID).Msg("failed to dispatch alert")
	}
}

// pollCandles refreshes the recent-candle aggregation from the spot feed.
func (s *Service) pollCandles(ctx context.Context, now time.Time) error {
	query := market.KlineQuery{Symbol: s.symbol, Interval: s.interval, Limit: s.limit}

	candles, err := s.spot.FetchKlines(ctx, query)
	if err != nil {
		return fmt.Errorf("fetch klines: %w", err)
	}

	buckets := aggregate.Aggregate(candles, s.sessions, s.loc)
	s.storeIntraday(Snapshot{Query: query, Buckets: buckets, UpdatedAt: now})
	return nil
}

// pollHistory refreshes the month-to-date session table from the futures
// feed, hourly candles from the first of the month.
func (s *Service) pollHistory(ctx context.Context, now time.Time) error {
	start, end := MonthRange(now.In(s.loc))
	query := market.KlineQuery{
		Symbol:    s.symbol,
		Interval:  "1h",
		StartTime: start,
		EndTime:   end,
		Limit:     1000,
	}

	candles, err := s.futures.FetchKlines(ctx, query)
	if err != nil {
		return fmt.Errorf("fetch history klines: %w", err)
	}

	buckets := aggregate.Aggregate(candles, s.sessions, s.loc)
	s.storeMonthly(Snapshot{Query: query, Buckets: buckets, UpdatedAt: now})
	return nil
}

func (s *Service) storeIntraday(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(snap.Query) {
		s.logger.Debug().Str("symbol", snap.Query.Symbol).Msg("discarding stale intraday response")
		return
	}
	s.intraday = snap
}

func (s *Service) storeMonthly(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(snap.Query) {
		s.logger.Debug().Str("symbol", snap.Query.Symbol).Msg("discarding stale history response")
		return
	}
	s.monthly = snap
}

// stale reports whether a completed response no longer matches the
// service's current query parameters.
func (s *Service) stale(q market.KlineQuery) bool {
	return q.Symbol != s.symbol
}

// Intraday returns the last completed recent-candle aggregation.
func (s *Service) Intraday() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intraday
}

// Monthly returns the last completed month-to-date aggregation.
func (s *Service) Monthly() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monthly
}

// Ticker returns the latest ticker statistics and when they were taken.
func (s *Service) Ticker() (market.Ticker, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticker, s.tickerAt
}

// MonthRange 返回 t 所在自然月的起止时间, 结束时间不超过 t 本身。
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	if end.After(t) {
		end = t
	}
	return start, end
}
