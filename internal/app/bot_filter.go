package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"whalebot/clients/notifier"
	"whalebot/clients/subgraph"
)

const defaultBotWindow = 24 * time.Hour

// BotFilter flags accounts whose recent trade count exceeds a cap.
type BotFilter struct {
	logger *zap.Logger
	feed   TradeCounter
	now    func() time.Time
}

func NewBotFilter(logger *zap.Logger, feed TradeCounter) *BotFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BotFilter{
		logger: logger.Named("botfilter"),
		feed:   feed,
		now:    time.Now,
	}
}

// IsLikelyBot reports whether address made more than maxDailyTrades trades
// within window. Only maxDailyTrades+1 rows are fetched. Feed errors count
// as "not a bot" and are logged.
func (b *BotFilter) IsLikelyBot(ctx context.Context, address string, maxDailyTrades int, window time.Duration) bool {
	if window <= 0 {
		window = defaultBotWindow
	}
	since := b.now().Add(-window).Unix()

	count, err := b.feed.CountRecentTradesForAccount(ctx, address, since, maxDailyTrades+1)
	if err != nil {
		b.logger.Warn("bot check failed, treating account as human",
			zap.String("address", address),
			zap.Int64("since", since),
			zap.Bool("transport", subgraph.IsTransport(err)),
			zap.Bool("parse", subgraph.IsParse(err)),
			zap.Error(err),
		)
		return false
	}

	if count > maxDailyTrades {
		b.logger.Debug("account exceeds trade cap",
			zap.String("address", notifier.ShortAddress(address)),
			zap.Int("count", count),
			zap.Int("cap", maxDailyTrades),
		)
		return true
	}
	return false
}
