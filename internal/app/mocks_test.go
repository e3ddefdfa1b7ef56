package app

import (
	"context"
	"sync"
	"time"

	"whalebot/clients/copytrade"
	"whalebot/clients/notifier"
	"whalebot/clients/subgraph"
)

// fakeFeed is an in-memory TradeFeed.
type fakeFeed struct {
	mu sync.Mutex

	// FetchTradePage
	trades     []subgraph.TradeEvent
	skipped    []int64 // timestamps of malformed records in the window
	tradesErr  error
	tradeCalls []int64 // sinceTimestamp per call
	block      chan struct{}

	// FetchTopAccountsByProfit
	accounts    []subgraph.Account
	accountsErr error
	rankCalls   int

	// CountRecentTradesForAccount
	counts     map[string]int
	countErrs  map[string]error
	countDelay func(address string) time.Duration
	countCaps  map[string]int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		counts:    make(map[string]int),
		countErrs: make(map[string]error),
		countCaps: make(map[string]int),
	}
}

func (f *fakeFeed) FetchTradePage(ctx context.Context, since int64, limit int) (subgraph.TradePage, error) {
	f.mu.Lock()
	f.tradeCalls = append(f.tradeCalls, since)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return subgraph.TradePage{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tradesErr != nil {
		return subgraph.TradePage{}, f.tradesErr
	}
	page := subgraph.TradePage{
		Events:          make([]subgraph.TradeEvent, 0, len(f.trades)),
		NewestTimestamp: since,
	}
	for _, t := range f.trades {
		if t.Timestamp > since && len(page.Events) < limit {
			page.Events = append(page.Events, t)
			page.NewestTimestamp = max(page.NewestTimestamp, t.Timestamp)
		}
	}
	for _, ts := range f.skipped {
		if ts > since {
			page.Skipped++
			page.NewestTimestamp = max(page.NewestTimestamp, ts)
		}
	}
	return page, nil
}

func (f *fakeFeed) FetchTopAccountsByProfit(ctx context.Context, limit int) ([]subgraph.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rankCalls++
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	out := append([]subgraph.Account(nil), f.accounts...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeFeed) CountRecentTradesForAccount(ctx context.Context, address string, since int64, capPlusOne int) (int, error) {
	f.mu.Lock()
	delay := time.Duration(0)
	if f.countDelay != nil {
		delay = f.countDelay(address)
	}
	f.countCaps[address] = capPlusOne
	err := f.countErrs[address]
	n := f.counts[address]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return 0, err
	}
	if n > capPlusOne {
		n = capPlusOne
	}
	return n, nil
}

func (f *fakeFeed) setTrades(events ...subgraph.TradeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trades = events
}

func (f *fakeFeed) setTradesErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tradesErr = err
}

func (f *fakeFeed) calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.tradeCalls...)
}

// fakeSink records alerts and messages.
type fakeSink struct {
	mu       sync.Mutex
	alerts   []notifier.TradeAlert
	messages []string
}

func (s *fakeSink) SendTradeAlert(alert notifier.TradeAlert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
}

func (s *fakeSink) SendMessage(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, text)
}

func (s *fakeSink) Alerts() []notifier.TradeAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notifier.TradeAlert(nil), s.alerts...)
}

func (s *fakeSink) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

// fakeExecutor records copy-trade instructions.
type fakeExecutor struct {
	mu           sync.Mutex
	instructions []copytrade.Instruction
	err          error
}

func (e *fakeExecutor) Execute(ctx context.Context, in copytrade.Instruction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.instructions = append(e.instructions, in)
	return e.err
}

func (e *fakeExecutor) Instructions() []copytrade.Instruction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]copytrade.Instruction(nil), e.instructions...)
}

func trade(id string, ts int64, creator string) subgraph.TradeEvent {
	return subgraph.TradeEvent{
		ID:             id,
		Timestamp:      ts,
		MarketTitle:    "Will it rain?",
		OutcomeIndex:   "0",
		Side:           subgraph.SideBuy,
		CreatorAddress: creator,
	}
}
