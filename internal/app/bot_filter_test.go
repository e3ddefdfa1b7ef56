package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"whalebot/clients/subgraph"
)

func TestBotFilter_IsLikelyBot(t *testing.T) {
	tests := []struct {
		name   string
		trades int
		cap    int
		want   bool
	}{
		{"well below cap", 3, 50, false},
		{"at cap", 50, 50, false},
		{"one over cap", 51, 50, true},
		{"far over cap", 5000, 50, true},
		{"no trades", 0, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := newFakeFeed()
			feed.counts["0xa"] = tt.trades
			bf := NewBotFilter(nil, feed)

			assert.Equal(t, tt.want, bf.IsLikelyBot(context.Background(), "0xa", tt.cap, 24*time.Hour))
		})
	}
}

func TestBotFilter_FetchesCapPlusOne(t *testing.T) {
	feed := newFakeFeed()
	bf := NewBotFilter(nil, feed)

	bf.IsLikelyBot(context.Background(), "0xa", 50, 0)

	assert.Equal(t, 51, feed.countCaps["0xa"])
}

func TestBotFilter_Window(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var gotSince int64
	counter := countFunc(func(_ context.Context, _ string, since int64, _ int) (int, error) {
		gotSince = since
		return 0, nil
	})

	bf := NewBotFilter(nil, counter)
	bf.now = func() time.Time { return now }

	bf.IsLikelyBot(context.Background(), "0xa", 50, 0)
	assert.Equal(t, now.Add(-24*time.Hour).Unix(), gotSince, "zero window defaults to 24h")

	bf.IsLikelyBot(context.Background(), "0xa", 50, 6*time.Hour)
	assert.Equal(t, now.Add(-6*time.Hour).Unix(), gotSince)
}

func TestBotFilter_FailsOpen(t *testing.T) {
	feed := newFakeFeed()
	feed.counts["0xa"] = 1000
	feed.countErrs["0xa"] = &subgraph.TransportError{Op: "count", StatusCode: 503}
	feed.countErrs["0xb"] = &subgraph.ParseError{Op: "count"}
	feed.counts["0xb"] = 1000

	bf := NewBotFilter(nil, feed)

	assert.False(t, bf.IsLikelyBot(context.Background(), "0xa", 50, 0))
	assert.False(t, bf.IsLikelyBot(context.Background(), "0xb", 50, 0))
}

type countFunc func(ctx context.Context, address string, since int64, capPlusOne int) (int, error)

func (f countFunc) CountRecentTradesForAccount(ctx context.Context, address string, since int64, capPlusOne int) (int, error) {
	return f(ctx, address, since, capPlusOne)
}
