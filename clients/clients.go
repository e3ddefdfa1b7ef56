package clients

import (
	"go.uber.org/zap"

	"whalebot/clients/copytrade"
	"whalebot/clients/discord"
	"whalebot/clients/notifier"
	"whalebot/clients/subgraph"
	"whalebot/clients/telegram"
	"whalebot/config"
)

type Clients struct {
	Logger *zap.Logger

	Discord   *discord.DiscordClient
	Telegram  *telegram.TelegramClient
	Notifier  *notifier.MultiNotifier // Combined notifier for all enabled channels
	Subgraph  *subgraph.Client
	CopyTrade *copytrade.Executor
}

func NewClients(logger *zap.Logger, cfg *config.Config) *Clients {
	discordClient := discord.NewDiscordClient(logger, cfg)
	telegramClient := telegram.NewTelegramClient(logger, cfg)

	// Only channels that can actually deliver join the broadcast.
	var channels []notifier.Notifier
	if cfg.Discord.Enabled() {
		channels = append(channels, discordClient)
	}
	if telegramClient.Enabled() {
		channels = append(channels, telegramClient)
	}
	multiNotifier := notifier.NewMultiNotifier(channels...)

	return &Clients{
		Logger:    logger,
		Discord:   discordClient,
		Telegram:  telegramClient,
		Notifier:  multiNotifier,
		Subgraph:  subgraph.NewClient(logger, cfg),
		CopyTrade: copytrade.NewExecutor(logger, cfg, multiNotifier),
	}
}
