package discord

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"whalebot/clients/notifier"
	"whalebot/config"
)

func TestNewDiscordClient_NoToken(t *testing.T) {
	cfg := config.Defaults()
	cfg.Discord.ChannelID = "channel"

	client := NewDiscordClient(zap.NewNop(), cfg)

	if client.session != nil {
		t.Error("expected nil session when no token provided")
	}
	if client.channelID != "channel" {
		t.Errorf("expected channel, got: %s", client.channelID)
	}
}

func TestNewDiscordClient_NoChannel(t *testing.T) {
	cfg := config.Defaults()
	cfg.Discord.BotToken = "token"

	client := NewDiscordClient(nil, cfg)

	if client.session != nil {
		t.Error("expected nil session when no channel provided")
	}
}

func TestNewDiscordClient_WithToken(t *testing.T) {
	cfg := config.Defaults()
	cfg.Discord.BotToken = "token"
	cfg.Discord.ChannelID = "channel"

	client := NewDiscordClient(nil, cfg)

	if client.session == nil {
		t.Fatal("expected session to be created")
	}
	if client.session.Token != "Bot token" {
		t.Errorf("unexpected session token: %s", client.session.Token)
	}
}

func TestSendMessage_NoSession(t *testing.T) {
	client := &DiscordClient{
		logger:  zap.NewNop(),
		session: nil,
	}

	// Should not panic
	client.SendMessage("test message")
}

func TestSendTradeAlert_NoSession(t *testing.T) {
	client := &DiscordClient{
		logger:  zap.NewNop(),
		session: nil,
	}

	// Should not panic
	client.SendTradeAlert(notifier.TradeAlert{TraderAddress: "0xabc"})
}

func TestClose_NoSession(t *testing.T) {
	client := &DiscordClient{logger: zap.NewNop()}

	if err := client.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuildTradeEmbed(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	alert := notifier.TradeAlert{
		Kind:          notifier.AlertKindWhale,
		TraderAddress: "0x1234567890abcdef1234567890abcdef12345678",
		TradeID:       "e1",
		Side:          "Buy",
		MarketTitle:   "Will it rain?",
		Outcome:       "1",
		Collateral:    decimal.RequireFromString("2500.5"),
		Timestamp:     ts,
	}

	embed := buildTradeEmbed(alert)

	if embed.Title != "🚨 Whale Alert" {
		t.Errorf("unexpected title: %s", embed.Title)
	}
	if embed.Color != colorBuy {
		t.Errorf("expected buy color, got %x", embed.Color)
	}
	if embed.URL != "https://polymarket.com/profile/0x1234567890abcdef1234567890abcdef12345678" {
		t.Errorf("unexpected url: %s", embed.URL)
	}
	if embed.Timestamp != "2024-05-01T12:00:00Z" {
		t.Errorf("unexpected timestamp: %s", embed.Timestamp)
	}
	if !strings.Contains(embed.Footer.Text, "e1") {
		t.Errorf("expected trade id in footer: %s", embed.Footer.Text)
	}
	if len(embed.Fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(embed.Fields))
	}
	if embed.Fields[0].Value != "[0x1234…345678](https://polymarket.com/profile/0x1234567890abcdef1234567890abcdef12345678)" {
		t.Errorf("unexpected user field: %s", embed.Fields[0].Value)
	}
	if embed.Fields[2].Value != "$2,500.50 USDC" {
		t.Errorf("unexpected amount field: %s", embed.Fields[2].Value)
	}
}

func TestBuildTradeEmbed_Colors(t *testing.T) {
	tests := []struct {
		name  string
		kind  notifier.AlertKind
		side  string
		color int
	}{
		{"whale buy", notifier.AlertKindWhale, "Buy", colorBuy},
		{"whale sell", notifier.AlertKindWhale, "Sell", colorSell},
		{"smart money buy", notifier.AlertKindSmartMoney, "Buy", colorSmartMoney},
		{"smart money sell", notifier.AlertKindSmartMoney, "Sell", colorSmartMoney},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed := buildTradeEmbed(notifier.TradeAlert{Kind: tt.kind, Side: tt.side})
			if embed.Color != tt.color {
				t.Errorf("expected color %x, got %x", tt.color, embed.Color)
			}
		})
	}
}
