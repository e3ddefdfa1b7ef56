package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"whalebot/clients/copytrade"
	"whalebot/clients/notifier"
	"whalebot/clients/subgraph"
)

// LoopState is the PollLoop lifecycle phase.
type LoopState int32

const (
	StateIdle LoopState = iota
	StateDiscovering
	StatePolling
)

func (s LoopState) String() string {
	switch s {
	case StateDiscovering:
		return "discovering"
	case StatePolling:
		return "polling"
	default:
		return "idle"
	}
}

// PollLoopConfig holds PollLoop tuning.
type PollLoopConfig struct {
	Interval         time.Duration
	TradeLimit       int
	DiscoveryEnabled bool
	Discovery        DiscoveryOptions
}

// LoopStats is a point-in-time view of the loop for the status server.
type LoopStats struct {
	State         string `json:"state"`
	Cursor        int64  `json:"cursor"`
	Ticks         uint64 `json:"ticks"`
	SkippedTicks  uint64 `json:"skipped_ticks"`
	PollErrors    uint64 `json:"poll_errors"`
	TradesSeen    uint64 `json:"trades_seen"`
	TradesSkipped uint64 `json:"trades_skipped"`
	WhaleAlerts   uint64 `json:"whale_alerts"`
	SmartAlerts   uint64 `json:"smart_money_alerts"`
	CopyTrades    uint64 `json:"copy_trades"`
	LastPollAt    string `json:"last_poll_at,omitempty"`
	LastPollError string `json:"last_poll_error,omitempty"`
}

// PollLoop drives discovery once, then polls the feed on every tick and
// dispatches alerts for watched accounts. Ticks never overlap.
type PollLoop struct {
	logger   *zap.Logger
	cfg      PollLoopConfig
	feed     TradeFeed
	registry *WatchRegistry
	cursor   *TradeCursor
	ranker   *AccountRanker
	sink     AlertSink
	executor TradeExecutor
	metrics  *Metrics

	tickMu sync.Mutex
	state  atomic.Int32

	ticks         atomic.Uint64
	skippedTicks  atomic.Uint64
	pollErrors    atomic.Uint64
	tradesSeen    atomic.Uint64
	skippedTrades atomic.Uint64
	whaleAlerts   atomic.Uint64
	smartAlerts   atomic.Uint64
	copyTrades    atomic.Uint64

	lastMu        sync.RWMutex
	lastPollAt    time.Time
	lastPollError string
}

func NewPollLoop(
	logger *zap.Logger,
	cfg PollLoopConfig,
	feed TradeFeed,
	registry *WatchRegistry,
	cursor *TradeCursor,
	sink AlertSink,
	executor TradeExecutor,
	metrics *Metrics,
) *PollLoop {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.TradeLimit <= 0 {
		cfg.TradeLimit = 20
	}

	return &PollLoop{
		logger:   logger.Named("poller"),
		cfg:      cfg,
		feed:     feed,
		registry: registry,
		cursor:   cursor,
		ranker:   NewAccountRanker(logger, feed, NewBotFilter(logger, feed), metrics),
		sink:     sink,
		executor: executor,
		metrics:  metrics,
	}
}

func (pl *PollLoop) State() LoopState {
	return LoopState(pl.state.Load())
}

// Run ticks immediately, then every cfg.Interval until ctx is done. Each tick
// runs on its own goroutine; a tick that fires while the previous one is
// still running is skipped. Run waits for the in-flight tick before returning.
func (pl *PollLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(pl.cfg.Interval)
	defer ticker.Stop()

	pl.logger.Info("poll loop started",
		zap.Duration("interval", pl.cfg.Interval),
		zap.Int("tradeLimit", pl.cfg.TradeLimit),
		zap.Int64("cursor", pl.cursor.Get()),
	)

	var wg sync.WaitGroup
	fire := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pl.Tick(ctx)
		}()
	}

	// Initial tick
	fire()

	for {
		select {
		case <-ctx.Done():
			pl.logger.Info("poll loop shutting down")
			wg.Wait()
			return
		case <-ticker.C:
			fire()
		}
	}
}

// Tick runs one iteration: discovery on the first call, then a poll. It
// returns false without doing anything if another tick is in flight.
func (pl *PollLoop) Tick(ctx context.Context) bool {
	if !pl.tickMu.TryLock() {
		pl.skippedTicks.Add(1)
		pl.metrics.ObservePoll(pollResultSkipped)
		pl.logger.Debug("previous tick still running, skipping")
		return false
	}
	defer pl.tickMu.Unlock()

	pl.ticks.Add(1)
	if pl.State() == StateIdle {
		pl.discover(ctx)
	}
	pl.poll(ctx)
	return true
}

// discover runs the one-time discovery pass. Failures leave the smart-money
// set empty and are never retried.
func (pl *PollLoop) discover(ctx context.Context) {
	pl.state.Store(int32(StateDiscovering))
	defer pl.state.Store(int32(StatePolling))

	if !pl.cfg.DiscoveryEnabled {
		pl.logger.Info("discovery disabled, monitoring manual watchlist only")
		return
	}

	accounts, err := pl.ranker.DiscoverAccounts(ctx, pl.cfg.Discovery)
	if err != nil {
		pl.logger.Warn("discovery failed, continuing without smart money",
			zap.Bool("transport", subgraph.IsTransport(err)),
			zap.Bool("parse", subgraph.IsParse(err)),
			zap.Error(err),
		)
		return
	}

	added := 0
	for _, a := range accounts {
		if pl.registry.AddSmartMoney(a.Address) {
			added++
			pl.logger.Info("smart money admitted",
				zap.String("address", a.Address),
				zap.Float64("profit", a.Profit),
			)
		}
	}
	pl.metrics.SetWatchlist(pl.registry.Counts())

	if added > 0 {
		pl.sink.SendMessage(fmt.Sprintf("🐳 Found %d Top Whales on startup", added))
	}
}

// poll fetches trades newer than the cursor and dispatches matches. On a
// feed error the cursor is left untouched so the next tick retries.
func (pl *PollLoop) poll(ctx context.Context) {
	since := pl.cursor.Get()

	page, err := pl.feed.FetchTradePage(ctx, since, pl.cfg.TradeLimit)
	pl.recordPoll(err)
	if err != nil {
		pl.pollErrors.Add(1)
		pl.metrics.ObservePoll(pollResultError)
		pl.logger.Warn("failed to fetch trades",
			zap.Int64("since", since),
			zap.Bool("transport", subgraph.IsTransport(err)),
			zap.Bool("parse", subgraph.IsParse(err)),
			zap.Error(err),
		)
		return
	}
	events := page.Events
	pl.metrics.ObservePoll(pollResultOK)
	pl.metrics.ObserveTrades(len(events))
	pl.metrics.ObserveSkippedTrades(page.Skipped)
	pl.tradesSeen.Add(uint64(len(events)))
	pl.skippedTrades.Add(uint64(page.Skipped))

	// Malformed records are not dispatched but still move the cursor.
	maxSeen := max(since, page.NewestTimestamp)
	dispatched := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev.Timestamp > maxSeen {
			maxSeen = ev.Timestamp
		}
		if _, dup := dispatched[ev.ID]; dup {
			continue
		}
		dispatched[ev.ID] = struct{}{}
		pl.handleTrade(ctx, ev)
	}

	if pl.cursor.Advance(maxSeen) {
		pl.metrics.SetCursor(maxSeen)
		pl.logger.Debug("cursor advanced",
			zap.Int64("from", since),
			zap.Int64("to", maxSeen),
			zap.Int("events", len(events)),
		)
	}
}

func (pl *PollLoop) handleTrade(ctx context.Context, ev subgraph.TradeEvent) {
	class := pl.registry.Classify(ev.CreatorAddress)
	if class == NotWatched {
		return
	}

	kind := notifier.AlertKindWhale
	if class == WatchSmartMoney {
		kind = notifier.AlertKindSmartMoney
	}

	pl.sink.SendTradeAlert(notifier.TradeAlert{
		Kind:          kind,
		TraderAddress: ev.CreatorAddress,
		TradeID:       ev.ID,
		Side:          string(ev.Side),
		Amount:        ev.Amount,
		Collateral:    ev.CollateralAmount,
		MarketTitle:   nz(ev.MarketTitle, "Unknown market"),
		Outcome:       ev.OutcomeIndex,
		Timestamp:     time.Unix(ev.Timestamp, 0),
	})
	pl.metrics.ObserveAlert(class)

	pl.logger.Info("watched trade",
		zap.String("class", class.String()),
		zap.String("trader", notifier.ShortAddress(ev.CreatorAddress)),
		zap.String("tradeID", ev.ID),
		zap.String("side", string(ev.Side)),
		zap.String("collateral", ev.CollateralAmount.String()),
	)

	if class != WatchManual {
		pl.smartAlerts.Add(1)
		return
	}
	pl.whaleAlerts.Add(1)

	in := copytrade.NewInstruction(ev.CreatorAddress, ev.MarketTitle, ev.OutcomeIndex, string(ev.Side))
	if err := pl.executor.Execute(ctx, in); err != nil {
		pl.metrics.ObserveCopyTrade(pollResultError)
		pl.logger.Warn("copy trade failed",
			zap.String("instructionID", in.ID),
			zap.String("tradeID", ev.ID),
			zap.Error(err),
		)
		return
	}
	pl.copyTrades.Add(1)
	pl.metrics.ObserveCopyTrade(pollResultOK)
}

func (pl *PollLoop) recordPoll(err error) {
	pl.lastMu.Lock()
	defer pl.lastMu.Unlock()
	pl.lastPollAt = time.Now()
	if err != nil {
		pl.lastPollError = err.Error()
	} else {
		pl.lastPollError = ""
	}
}

// Stats returns a snapshot of loop counters.
func (pl *PollLoop) Stats() LoopStats {
	s := LoopStats{
		State:         pl.State().String(),
		Cursor:        pl.cursor.Get(),
		Ticks:         pl.ticks.Load(),
		SkippedTicks:  pl.skippedTicks.Load(),
		PollErrors:    pl.pollErrors.Load(),
		TradesSeen:    pl.tradesSeen.Load(),
		TradesSkipped: pl.skippedTrades.Load(),
		WhaleAlerts:   pl.whaleAlerts.Load(),
		SmartAlerts:   pl.smartAlerts.Load(),
		CopyTrades:    pl.copyTrades.Load(),
	}
	pl.lastMu.RLock()
	if !pl.lastPollAt.IsZero() {
		s.LastPollAt = pl.lastPollAt.UTC().Format(time.RFC3339)
	}
	s.LastPollError = pl.lastPollError
	pl.lastMu.RUnlock()
	return s
}
