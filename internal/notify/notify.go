package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"sessionwatch/internal/alert"
)

// Event 封装一次告警通知的上下文。
type Event struct {
	Symbol    string
	RuleID    string
	Direction alert.Direction
	Target    float64
	Price     float64
	At        time.Time
}

// NewEvent builds a notification from a fired rule.
func NewEvent(symbol string, fired alert.Fired) Event {
	return Event{
		Symbol:    symbol,
		RuleID:    fired.RuleID,
		Direction: fired.Direction,
		Target:    fired.Target,
		Price:     fired.Price,
		At:        fired.At,
	}
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Telegram pushes alert messages through the Telegram Bot API.
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegram 构造 Telegram 告警器。
func NewTelegram(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *Telegram {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (t *Telegram) Notify(ctx context.Context, event Event) error {
	payload := map[string]string{
		"chat_id": t.chatID,
		"text":    renderMessage(event),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	t.logger.Info().
		Str("symbol", event.Symbol).
		Str("direction", event.Direction.String()).
		Str("rule_id", event.RuleID).
		Msg("告警已发送 (Telegram)")
	return nil
}

func renderMessage(event Event) string {
	arrow := "price moved above target"
	if event.Direction == alert.Below {
		arrow = "price moved below target"
	}

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[%s Price Alert]\n", event.Symbol))
	builder.WriteString(fmt.Sprintf("Time: %s UTC\n", event.At.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf("Target: %s\n", decimal.NewFromFloat(event.Target).String()))
	builder.WriteString(fmt.Sprintf("Current: %s\n", decimal.NewFromFloat(event.Price).String()))
	builder.WriteString(fmt.Sprintf("Direction: %s (%s)\n", event.Direction, arrow))
	return builder.String()
}

var _ Notifier = (*Telegram)(nil)
