package app

import (
	"context"

	"whalebot/clients/copytrade"
	"whalebot/clients/notifier"
	"whalebot/clients/subgraph"
)

// TradeCounter counts an account's recent trades.
type TradeCounter interface {
	CountRecentTradesForAccount(ctx context.Context, address string, sinceTimestamp int64, capPlusOne int) (int, error)
}

// AccountSource ranks accounts by realized profit.
type AccountSource interface {
	FetchTopAccountsByProfit(ctx context.Context, limit int) ([]subgraph.Account, error)
}

// TradeFeed is everything the engine reads from the subgraph.
type TradeFeed interface {
	TradeCounter
	AccountSource
	FetchTradePage(ctx context.Context, sinceTimestamp int64, limit int) (subgraph.TradePage, error)
}

// AlertSink receives alerts and free-form messages.
type AlertSink interface {
	SendTradeAlert(alert notifier.TradeAlert)
	SendMessage(text string)
}

// TradeExecutor carries out copy-trade instructions.
type TradeExecutor interface {
	Execute(ctx context.Context, in copytrade.Instruction) error
}

var (
	_ TradeFeed     = (*subgraph.Client)(nil)
	_ AlertSink     = (*notifier.MultiNotifier)(nil)
	_ TradeExecutor = (*copytrade.Executor)(nil)
)
