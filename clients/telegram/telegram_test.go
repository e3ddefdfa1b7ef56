package telegram

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"whalebot/clients/notifier"
	"whalebot/config"
)

const (
	getMeResponse       = `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"whalebot","username":"whalebot"}}`
	sendMessageResponse = `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`
)

// fakeBotAPI answers getMe and records sendMessage form posts.
type fakeBotAPI struct {
	mu       sync.Mutex
	messages []map[string]string
	failSend bool
}

func (f *fakeBotAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(getMeResponse))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.failSend {
				_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`))
				return
			}
			f.messages = append(f.messages, map[string]string{
				"chat_id":    r.FormValue("chat_id"),
				"text":       r.FormValue("text"),
				"parse_mode": r.FormValue("parse_mode"),
			})
			_, _ = w.Write([]byte(sendMessageResponse))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})
}

func (f *fakeBotAPI) sent() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.messages...)
}

func newTestClient(t *testing.T, api *fakeBotAPI) *TelegramClient {
	t.Helper()
	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)

	cfg := config.Defaults()
	cfg.Telegram.BotToken = "test-token"
	cfg.Telegram.ChatID = 42
	cfg.Telegram.APIEndpoint = server.URL + "/bot%s/%s"

	client := NewTelegramClient(zap.NewNop(), cfg)
	if !client.Enabled() {
		t.Fatal("expected client to be enabled")
	}
	return client
}

func TestNewTelegramClient_NoToken(t *testing.T) {
	cfg := config.Defaults()
	cfg.Telegram.ChatID = 42

	client := NewTelegramClient(nil, cfg)

	if client.Enabled() {
		t.Error("expected client to be disabled without token")
	}
	// Should not panic
	client.SendTradeAlert(notifier.TradeAlert{})
	client.SendMessage("hello")
}

func TestNewTelegramClient_GetMeFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	cfg := config.Defaults()
	cfg.Telegram.BotToken = "bad-token"
	cfg.Telegram.ChatID = 42
	cfg.Telegram.APIEndpoint = server.URL + "/bot%s/%s"

	client := NewTelegramClient(zap.NewNop(), cfg)
	if client.Enabled() {
		t.Error("expected client to be disabled when getMe fails")
	}
}

func TestNewTelegramClient_BadProxy(t *testing.T) {
	cfg := config.Defaults()
	cfg.Telegram.BotToken = "token"
	cfg.Telegram.ChatID = 42
	cfg.Telegram.ProxyURL = "://bad"

	if NewTelegramClient(nil, cfg).Enabled() {
		t.Error("expected client to be disabled with bad proxy")
	}
}

func TestNewHTTPClient_Proxy(t *testing.T) {
	client, err := newHTTPClient("http://127.0.0.1:3128")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	transport, ok := client.Transport.(*http.Transport)
	if !ok || transport.Proxy == nil {
		t.Fatal("expected proxy transport")
	}

	plain, err := newHTTPClient("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plain.Transport != nil {
		t.Error("expected default transport without proxy")
	}
	if plain.Timeout != 10*time.Second {
		t.Errorf("unexpected timeout: %s", plain.Timeout)
	}
}

func TestSendTradeAlert(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api)

	client.SendTradeAlert(notifier.TradeAlert{
		Kind:          notifier.AlertKindWhale,
		TraderAddress: "0x1234567890abcdef1234567890abcdef12345678",
		TradeID:       "e1",
		Side:          "Buy",
		MarketTitle:   "Will_it rain?",
		Outcome:       "0",
		Collateral:    decimal.NewFromInt(1500),
	})

	sent := api.sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sent))
	}
	msg := sent[0]
	if msg["chat_id"] != "42" {
		t.Errorf("unexpected chat id: %s", msg["chat_id"])
	}
	if msg["parse_mode"] != "Markdown" {
		t.Errorf("unexpected parse mode: %s", msg["parse_mode"])
	}
	if !strings.HasPrefix(msg["text"], "🚨 *Whale Alert!*") {
		t.Errorf("unexpected text: %s", msg["text"])
	}
	if !strings.Contains(msg["text"], `Will\_it rain?`) {
		t.Errorf("expected escaped market title: %s", msg["text"])
	}
	if !strings.Contains(msg["text"], "$1,500.00 USDC") {
		t.Errorf("expected amount: %s", msg["text"])
	}
}

func TestSendMessage(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api)

	client.SendMessage("🤖 Whalebot started, monitoring 2 whale(s)")

	sent := api.sent()
	if len(sent) != 1 || sent[0]["text"] != "🤖 Whalebot started, monitoring 2 whale(s)" {
		t.Errorf("unexpected messages: %v", sent)
	}
}

func TestSendMessage_APIError(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api)
	api.mu.Lock()
	api.failSend = true
	api.mu.Unlock()

	// Errors are logged, never surfaced.
	client.SendMessage("hello")
	if err := client.send("hello"); err == nil {
		t.Error("expected error from failing API")
	}
}
