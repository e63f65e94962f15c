package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"sessionwatch/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Timezone string         `mapstructure:"timezone"`
	Sessions []SessionRule  `mapstructure:"sessions"`
	Poller   PollerConfig   `mapstructure:"poller"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Fallback FallbackConfig `mapstructure:"fallback"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// FeedConfig covers market-data connectivity.
type FeedConfig struct {
	SpotBaseURL    string        `mapstructure:"spot_base_url"`
	FuturesBaseURL string        `mapstructure:"futures_base_url"`
	Symbol         string        `mapstructure:"symbol"`
	Interval       string        `mapstructure:"interval"`
	Limit          int           `mapstructure:"limit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	RatePerMin     int           `mapstructure:"rate_per_min"`
}

// SessionRule 描述一个日内时段窗口, 小时为 [0,24) 区间, 结束小时不含。
type SessionRule struct {
	Name      string `mapstructure:"name"`
	StartHour int    `mapstructure:"start_hour"`
	EndHour   int    `mapstructure:"end_hour"`
}

// PollerConfig governs the three independent polling cadences.
type PollerConfig struct {
	PriceInterval   time.Duration `mapstructure:"price_interval"`
	CandleInterval  time.Duration `mapstructure:"candle_interval"`
	HistoryInterval time.Duration `mapstructure:"history_interval"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// AlertRuleConfig seeds one threshold rule at startup.
type AlertRuleConfig struct {
	Target    float64 `mapstructure:"target"`
	Direction string  `mapstructure:"direction"`
}

// AlertingConfig defines evaluator gates and routing.
type AlertingConfig struct {
	Enabled    bool              `mapstructure:"enabled"`
	Cooldown   time.Duration     `mapstructure:"cooldown"`
	MinMovePct float64           `mapstructure:"min_move_pct"`
	Rules      []AlertRuleConfig `mapstructure:"rules"`
	Telegram   TelegramConfig    `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// FallbackConfig tunes the synthetic data generator used on feed failure.
type FallbackConfig struct {
	BasePrices map[string]float64 `mapstructure:"base_prices"`
	Volatility float64            `mapstructure:"volatility"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SESSIONWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sessionwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("feed.spot_base_url", "https://api.binance.com")
	v.SetDefault("feed.futures_base_url", "https://fapi.binance.com")
	v.SetDefault("feed.symbol", "BTCUSDT")
	v.SetDefault("feed.interval", "1h")
	v.SetDefault("feed.limit", 10)
	v.SetDefault("feed.request_timeout", "10s")
	v.SetDefault("feed.user_agent", "sessionwatch/1.0")
	v.SetDefault("feed.rate_per_min", 1200)

	v.SetDefault("timezone", "UTC")

	v.SetDefault("sessions", []map[string]any{
		{"name": "morning", "start_hour": 4, "end_hour": 8},
		{"name": "afternoon", "start_hour": 12, "end_hour": 15},
		{"name": "night", "start_hour": 19, "end_hour": 1},
	})

	v.SetDefault("poller.price_interval", "1s")
	v.SetDefault("poller.candle_interval", "30s")
	v.SetDefault("poller.history_interval", "5m")
	v.SetDefault("poller.startup_delay", "0s")

	v.SetDefault("alerting.enabled", true)
	v.SetDefault("alerting.cooldown", "5m")
	v.SetDefault("alerting.min_move_pct", 0.5)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("fallback.volatility", 0.02)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Feed.Symbol == "" {
		return fmt.Errorf("feed.symbol must be configured")
	}
	if c.Feed.Interval == "" {
		return fmt.Errorf("feed.interval must be configured")
	}
	if c.Feed.Limit <= 0 {
		return fmt.Errorf("feed.limit must be greater than zero")
	}
	if c.Poller.PriceInterval <= 0 || c.Poller.CandleInterval <= 0 || c.Poller.HistoryInterval <= 0 {
		return fmt.Errorf("poller intervals must be greater than zero")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q 不合法: %w", c.Timezone, err)
	}
	for _, s := range c.Sessions {
		if s.Name == "" {
			return fmt.Errorf("session name must not be empty")
		}
		if s.StartHour < 0 || s.StartHour > 23 || s.EndHour < 0 || s.EndHour > 23 {
			return fmt.Errorf("session %q: hours must be within [0, 24)", s.Name)
		}
	}
	if c.Alerting.MinMovePct < 0 {
		return fmt.Errorf("alerting.min_move_pct cannot be negative")
	}
	for i, r := range c.Alerting.Rules {
		if r.Target <= 0 {
			return fmt.Errorf("alerting.rules[%d]: target must be greater than zero", i)
		}
		dir := strings.ToLower(r.Direction)
		if dir != "above" && dir != "below" && dir != "up" && dir != "down" {
			return fmt.Errorf("alerting.rules[%d]: direction %q 不合法", i, r.Direction)
		}
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	if c.Fallback.Volatility < 0 {
		return fmt.Errorf("fallback.volatility cannot be negative")
	}
	return nil
}

// Location resolves the reference timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
