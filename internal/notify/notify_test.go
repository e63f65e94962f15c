package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sessionwatch/internal/alert"
)

func testEvent() Event {
	return NewEvent("BTCUSDT", alert.Fired{
		RuleID:    "rule-1",
		Direction: alert.Above,
		Target:    50000,
		Price:     50250.5,
		At:        time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	})
}

func TestTelegramNotifySuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("路径应包含 sendMessage, 实际 %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegram("token", "chat", srv.URL, time.Second, zerolog.Nop())
	if err := notifier.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("Telegram Notify 应成功: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id 不正确: %#v", received)
	}
	text := received["text"]
	if !strings.Contains(text, "BTCUSDT") || !strings.Contains(text, "50000") || !strings.Contains(text, "50250.5") {
		t.Fatalf("消息内容缺少关键字段: %q", text)
	}
}

func TestTelegramNotifyAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegram("token", "chat", srv.URL, time.Second, zerolog.Nop())
	if err := notifier.Notify(context.Background(), testEvent()); err == nil {
		t.Fatal("ok=false 应报错")
	}
}

func TestTelegramNotifyHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	notifier := NewTelegram("token", "chat", srv.URL, time.Second, zerolog.Nop())
	if err := notifier.Notify(context.Background(), testEvent()); err == nil {
		t.Fatal("HTTP 403 应报错")
	}
}

func TestRenderMessageDirections(t *testing.T) {
	event := testEvent()
	if msg := renderMessage(event); !strings.Contains(msg, "above") {
		t.Fatalf("above 方向应出现在消息中: %q", msg)
	}

	event.Direction = alert.Below
	if msg := renderMessage(event); !strings.Contains(msg, "below") {
		t.Fatalf("below 方向应出现在消息中: %q", msg)
	}
}
