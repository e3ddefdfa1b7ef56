package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"whalebot/clients/notifier"
	"whalebot/config"
)

const (
	colorBuy        = 0x2ECC71
	colorSell       = 0xE74C3C
	colorSmartMoney = 0x9B59B6
)

// DiscordClient sends alerts to Discord.
// Implements notifier.Notifier interface.
type DiscordClient struct {
	logger    *zap.Logger
	session   *discordgo.Session
	channelID string
}

func NewDiscordClient(logger *zap.Logger, cfg *config.Config) *DiscordClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("discord")

	channelID := cfg.Discord.ChannelID
	if !cfg.Discord.Enabled() {
		logger.Warn("DISCORD_BOT_TOKEN or DISCORD_CHANNEL_ID not set, Discord alerts disabled")
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
		}
	}

	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		logger.Error("failed to create discord session", zap.Error(err))
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
		}
	}

	logger.Info("discord bot initialized", zap.String("channelID", channelID))

	return &DiscordClient{
		logger:    logger,
		session:   session,
		channelID: channelID,
	}
}

// SendMessage sends a plain text message.
func (dc *DiscordClient) SendMessage(message string) {
	if dc.session == nil {
		dc.logger.Warn("discord session not initialized, skipping message")
		return
	}

	_, err := dc.session.ChannelMessageSend(dc.channelID, message)
	if err != nil {
		dc.logger.Error("failed to send discord message", zap.Error(err))
		return
	}

	dc.logger.Info("sent discord message")
}

// SendTradeAlert sends a rich embedded trade alert.
// Implements notifier.Notifier interface.
func (dc *DiscordClient) SendTradeAlert(alert notifier.TradeAlert) {
	if dc.session == nil {
		dc.logger.Warn("discord session not initialized, skipping alert")
		return
	}

	embed := buildTradeEmbed(alert)

	_, err := dc.session.ChannelMessageSendEmbed(dc.channelID, embed)
	if err != nil {
		dc.logger.Error("failed to send discord embed",
			zap.String("tradeID", alert.TradeID),
			zap.Error(err),
		)
		return
	}

	dc.logger.Info("sent discord trade alert",
		zap.String("kind", string(alert.Kind)),
		zap.String("trader", notifier.ShortAddress(alert.TraderAddress)),
		zap.String("market", alert.MarketTitle),
	)
}

func buildTradeEmbed(alert notifier.TradeAlert) *discordgo.MessageEmbed {
	color := colorBuy
	sideEmoji := "🟢"
	if strings.EqualFold(alert.Side, "sell") {
		color = colorSell
		sideEmoji = "🔴"
	}
	if alert.Kind == notifier.AlertKindSmartMoney {
		color = colorSmartMoney
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "User",
			Value:  fmt.Sprintf("[%s](%s)", notifier.ShortAddress(alert.TraderAddress), alert.ProfileURL()),
			Inline: true,
		},
		{
			Name:   "Action",
			Value:  fmt.Sprintf("%s %s", sideEmoji, alert.Side),
			Inline: true,
		},
		{
			Name:   "Amount",
			Value:  alert.CollateralDisplay() + " USDC",
			Inline: true,
		},
		{
			Name:   "Outcome",
			Value:  alert.Outcome,
			Inline: true,
		},
	}

	ts := alert.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s", alert.Kind.Emoji(), alert.Kind.Title()),
		URL:         alert.ProfileURL(),
		Description: fmt.Sprintf("**%s**", alert.MarketTitle),
		Color:       color,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "whalebot • " + alert.TradeID,
		},
		Timestamp: ts.UTC().Format(time.RFC3339),
	}
}

// Close closes the Discord session.
func (dc *DiscordClient) Close() error {
	if dc.session != nil {
		return dc.session.Close()
	}
	return nil
}
