package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"sessionwatch/internal/alert"
	"sessionwatch/internal/config"
	"sessionwatch/internal/market"
	"sessionwatch/internal/notify"
	"sessionwatch/internal/service"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// newSources builds the spot and futures market sources. Both live feeds are
// wrapped in a failover that substitutes synthetic data, so a dead exchange
// never reaches the callers as an error.
func (a *App) newSources() (spot market.Source, futures market.Source) {
	fallback := market.NewSynthetic(market.SyntheticOptions{
		BasePrices: a.Config.Fallback.BasePrices,
		Volatility: a.Config.Fallback.Volatility,
	}, a.Logger)

	spotLive := market.NewBinance(market.BinanceOptions{
		BaseURL:    a.Config.Feed.SpotBaseURL,
		Timeout:    a.Config.Feed.RequestTimeout,
		UserAgent:  a.Config.Feed.UserAgent,
		RatePerMin: a.Config.Feed.RatePerMin,
	}, a.Logger)

	futuresLive := market.NewBinance(market.BinanceOptions{
		BaseURL:    a.Config.Feed.FuturesBaseURL,
		Timeout:    a.Config.Feed.RequestTimeout,
		UserAgent:  a.Config.Feed.UserAgent,
		RatePerMin: a.Config.Feed.RatePerMin,
	}, a.Logger)

	return market.NewFailover(spotLive, fallback, a.Logger),
		market.NewFailover(futuresLive, fallback, a.Logger)
}

func (a *App) newNotifier() notify.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return notify.NewTelegram(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

// newAlerting builds the rule store seeded from configuration and its
// evaluator.
func (a *App) newAlerting() (*alert.Store, *alert.Evaluator, error) {
	store := alert.NewStore()
	for _, rc := range a.Config.Alerting.Rules {
		dir, err := alert.ParseDirection(rc.Direction)
		if err != nil {
			return nil, nil, err
		}
		if _, err := store.Add(rc.Target, dir); err != nil {
			return nil, nil, err
		}
	}

	eval := alert.NewEvaluator(store, alert.EvaluatorOptions{
		Cooldown:   a.Config.Alerting.Cooldown,
		MinMovePct: a.Config.Alerting.MinMovePct / 100,
	}, a.Logger)

	return store, eval, nil
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	spot, futures := a.newSources()
	notifier := a.newNotifier()
	if notifier == nil && a.Config.Alerting.Enabled {
		a.Logger.Warn().Msg("alerting enabled but no notification channel configured; alerts will only be logged")
	}

	store, eval, err := a.newAlerting()
	if err != nil {
		return err
	}
	a.Logger.Info().Int("rules", len(store.List())).Msg("alert rules seeded")

	svc := service.New(a.Config, spot, futures, store, eval, notifier, a.Logger)

	a.Logger.Info().Str("symbol", a.Config.Feed.Symbol).Msg("starting monitoring service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// ExportOptions hold parameters for exporting aggregated session data.
type ExportOptions struct {
	Month   time.Month
	Year    int
	PNGPath string
	CSVPath string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
