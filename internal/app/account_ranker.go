package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"whalebot/clients/subgraph"
	"whalebot/config"
)

// DiscoveryOptions tunes one discovery pass. A zero PoolSize, ResultLimit,
// MaxDailyTrades or BotWindow selects the default (50, 20, 50, 24h);
// negative values are rejected.
type DiscoveryOptions struct {
	PoolSize       int
	MaxDailyTrades int
	MinProfit      float64 // exclusive
	ResultLimit    int
	BotWindow      time.Duration
	MaxWorkers     int // 0 = one worker per candidate
}

// DiscoveryOptionsFromConfig maps the discovery config section.
func DiscoveryOptionsFromConfig(cfg config.DiscoveryConfig) DiscoveryOptions {
	return DiscoveryOptions{
		PoolSize:       cfg.PoolSize,
		MaxDailyTrades: cfg.MaxDailyTrades,
		MinProfit:      cfg.MinProfit,
		ResultLimit:    cfg.ResultLimit,
		BotWindow:      cfg.BotWindow,
		MaxWorkers:     cfg.MaxWorkers,
	}
}

func (o DiscoveryOptions) validate() error {
	switch {
	case o.PoolSize < 0:
		return fmt.Errorf("invalid discovery options: pool size %d", o.PoolSize)
	case o.ResultLimit < 0:
		return fmt.Errorf("invalid discovery options: result limit %d", o.ResultLimit)
	case o.MaxDailyTrades < 0:
		return fmt.Errorf("invalid discovery options: max daily trades %d", o.MaxDailyTrades)
	case o.BotWindow < 0:
		return fmt.Errorf("invalid discovery options: bot window %s", o.BotWindow)
	case o.MaxWorkers < 0:
		return fmt.Errorf("invalid discovery options: max workers %d", o.MaxWorkers)
	}
	return nil
}

func (o DiscoveryOptions) withDefaults() DiscoveryOptions {
	if o.PoolSize == 0 {
		o.PoolSize = 50
	}
	if o.ResultLimit == 0 {
		o.ResultLimit = 20
	}
	if o.MaxDailyTrades == 0 {
		o.MaxDailyTrades = 50
	}
	if o.BotWindow == 0 {
		o.BotWindow = defaultBotWindow
	}
	return o
}

// AccountRanker picks profitable, non-bot accounts from the top of the PnL ranking.
type AccountRanker struct {
	logger  *zap.Logger
	source  AccountSource
	bots    *BotFilter
	metrics *Metrics
}

func NewAccountRanker(logger *zap.Logger, source AccountSource, bots *BotFilter, metrics *Metrics) *AccountRanker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountRanker{
		logger:  logger.Named("ranker"),
		source:  source,
		bots:    bots,
		metrics: metrics,
	}
}

// Discover returns qualifying addresses in profit-descending order.
func (r *AccountRanker) Discover(ctx context.Context, opts DiscoveryOptions) ([]string, error) {
	accounts, err := r.DiscoverAccounts(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(accounts))
	for i, a := range accounts {
		out[i] = a.Address
	}
	return out, nil
}

// DiscoverAccounts fetches the candidate pool, checks every candidate in
// parallel and keeps survivors in their original ranking order, truncated to
// opts.ResultLimit.
func (r *AccountRanker) DiscoverAccounts(ctx context.Context, opts DiscoveryOptions) ([]subgraph.Account, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	candidates, err := r.source.FetchTopAccountsByProfit(ctx, opts.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	if len(candidates) == 0 {
		r.logger.Info("no discovery candidates returned")
		r.metrics.ObserveDiscovery(0)
		return []subgraph.Account{}, nil
	}

	// admitted[i] belongs to candidates[i]; workers never touch other slots.
	admitted := make([]bool, len(candidates))

	var g errgroup.Group
	workers := opts.MaxWorkers
	if workers <= 0 || workers > len(candidates) {
		workers = len(candidates)
	}
	g.SetLimit(workers)

	start := time.Now()
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			if c.Profit <= opts.MinProfit {
				r.metrics.ObserveRejection(rejectUnprofitable)
				return nil
			}
			if r.bots.IsLikelyBot(ctx, c.Address, opts.MaxDailyTrades, opts.BotWindow) {
				r.metrics.ObserveRejection(rejectBot)
				return nil
			}
			admitted[i] = true
			return nil
		})
	}
	_ = g.Wait() // workers never fail; bot-check errors fail open

	result := make([]subgraph.Account, 0, opts.ResultLimit)
	for i, c := range candidates {
		if !admitted[i] {
			continue
		}
		result = append(result, c)
		if len(result) == opts.ResultLimit {
			break
		}
	}

	r.metrics.ObserveDiscovery(len(result))
	r.logger.Info("discovery pass complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("admitted", len(result)),
		zap.Int("workers", workers),
		zap.Duration("took", time.Since(start)),
	)
	return result, nil
}
