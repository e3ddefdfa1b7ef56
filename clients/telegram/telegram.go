package telegram

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"whalebot/clients/notifier"
	"whalebot/config"
)

// TelegramClient sends alerts to a Telegram chat.
// Implements notifier.Notifier interface.
type TelegramClient struct {
	logger *zap.Logger
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramClient(logger *zap.Logger, cfg *config.Config) *TelegramClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("telegram")
	tc := &TelegramClient{logger: logger, chatID: cfg.Telegram.ChatID}

	if !cfg.Telegram.Enabled() {
		logger.Warn("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set, Telegram alerts disabled")
		return tc
	}

	httpClient, err := newHTTPClient(cfg.Telegram.ProxyURL)
	if err != nil {
		logger.Error("invalid telegram proxy, Telegram alerts disabled", zap.Error(err))
		return tc
	}

	endpoint := cfg.Telegram.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram.BotToken, endpoint, httpClient)
	if err != nil {
		logger.Error("failed to initialize telegram bot, Telegram alerts disabled", zap.Error(err))
		return tc
	}
	tc.bot = bot

	logger.Info("telegram bot initialized",
		zap.String("username", bot.Self.UserName),
		zap.Int64("chatID", tc.chatID),
		zap.Bool("proxy", cfg.Telegram.ProxyURL != ""),
	)
	return tc
}

func newHTTPClient(proxyURL string) (*http.Client, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	if proxyURL == "" {
		return client, nil
	}
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	client.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
	return client, nil
}

// Enabled reports whether messages will actually be delivered.
func (tc *TelegramClient) Enabled() bool {
	return tc.bot != nil && tc.chatID != 0
}

// SendTradeAlert sends a trade alert notification.
// Implements notifier.Notifier interface.
func (tc *TelegramClient) SendTradeAlert(alert notifier.TradeAlert) {
	if !tc.Enabled() {
		tc.logger.Warn("telegram not configured, skipping alert")
		return
	}

	if err := tc.send(notifier.FormatText(alert, notifier.EscapeMarkdown)); err != nil {
		tc.logger.Error("failed to send telegram alert",
			zap.String("trader", alert.TraderAddress),
			zap.String("tradeID", alert.TradeID),
			zap.Error(err),
		)
		return
	}

	tc.logger.Info("sent telegram trade alert",
		zap.String("kind", string(alert.Kind)),
		zap.String("trader", notifier.ShortAddress(alert.TraderAddress)),
		zap.String("market", alert.MarketTitle),
	)
}

// SendMessage sends a free-form Markdown message.
func (tc *TelegramClient) SendMessage(text string) {
	if !tc.Enabled() {
		tc.logger.Warn("telegram not configured, skipping message")
		return
	}
	if err := tc.send(text); err != nil {
		tc.logger.Error("failed to send telegram message", zap.Error(err))
	}
}

func (tc *TelegramClient) send(text string) error {
	msg := tgbotapi.NewMessage(tc.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := tc.bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Close cleans up resources. Implements notifier.Notifier interface.
func (tc *TelegramClient) Close() error {
	return nil
}
