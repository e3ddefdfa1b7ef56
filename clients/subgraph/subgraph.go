package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"whalebot/config"
)

const (
	opFetchRecentTrades = "fetch recent trades"
	opFetchTopAccounts  = "fetch top accounts"
	opCountTrades       = "count account trades"

	maxErrorBody = 512
)

// Client queries the activity and PnL subgraphs. It never mutates shared
// state; every call is bounded by the configured request timeout.
type Client struct {
	logger      *zap.Logger
	httpClient  *http.Client
	limiter     *rate.Limiter
	activityURL string
	pnlURL      string
	tradesField string
}

func NewClient(logger *zap.Logger, cfg *config.Config) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	sg := cfg.Subgraph
	timeout := sg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tradesField := sg.TradesField
	if tradesField == "" {
		tradesField = "fpmmTrades"
	}

	var limiter *rate.Limiter
	if sg.RequestsPerSecond > 0 {
		burst := sg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(sg.RequestsPerSecond), burst)
	}

	return &Client{
		logger:      logger.Named("subgraph"),
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     limiter,
		activityURL: sg.ActivityURL,
		pnlURL:      sg.PnLURL,
		tradesField: tradesField,
	}
}

// FetchRecentTrades returns up to limit trades strictly newer than
// sinceTimestamp, newest first. No new trades yields an empty slice.
func (c *Client) FetchRecentTrades(ctx context.Context, sinceTimestamp int64, limit int) ([]TradeEvent, error) {
	page, err := c.FetchTradePage(ctx, sinceTimestamp, limit)
	if err != nil {
		return nil, err
	}
	return page.Events, nil
}

// FetchTradePage is FetchRecentTrades plus the bookkeeping a poller needs.
// A malformed record is logged and skipped; only envelope failures (bad
// JSON, missing data field) are a ParseError.
func (c *Client) FetchTradePage(ctx context.Context, sinceTimestamp int64, limit int) (TradePage, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(
		`{ %s(first: %d, orderBy: creationTimestamp, orderDirection: desc, where: { creationTimestamp_gt: "%d" }) { id creationTimestamp title outcomeIndex type amount collateralAmount creator { id } } }`,
		c.tradesField, limit, sinceTimestamp,
	)

	var raw []rawTrade
	if err := c.query(ctx, opFetchRecentTrades, c.activityURL, query, c.tradesField, &raw); err != nil {
		return TradePage{}, err
	}

	page := TradePage{
		Events:          make([]TradeEvent, 0, len(raw)),
		NewestTimestamp: sinceTimestamp,
	}
	for _, r := range raw {
		if ts, err := r.timestamp(); err == nil && ts > page.NewestTimestamp {
			page.NewestTimestamp = ts
		}
		ev, err := r.toEvent()
		if err != nil {
			page.Skipped++
			c.logger.Warn("skipping malformed trade",
				zap.String("tradeId", r.ID),
				zap.Error(err),
			)
			continue
		}
		page.Events = append(page.Events, ev)
	}
	return page, nil
}

// FetchTopAccountsByProfit returns up to limit accounts ordered by profit, descending.
func (c *Client) FetchTopAccountsByProfit(ctx context.Context, limit int) ([]Account, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`{ users(first: %d, orderBy: profit, orderDirection: desc) { id profit } }`, limit)

	var raw []rawUser
	if err := c.query(ctx, opFetchTopAccounts, c.pnlURL, query, "users", &raw); err != nil {
		return nil, err
	}

	accounts := make([]Account, 0, len(raw))
	for _, u := range raw {
		addr := NormalizeAddress(u.ID)
		if addr == "" {
			return nil, &ParseError{Op: opFetchTopAccounts, Err: fmt.Errorf("user without id")}
		}
		accounts = append(accounts, Account{
			Address: addr,
			Profit:  u.Profit.InexactFloat64(),
		})
	}
	return accounts, nil
}

// CountRecentTradesForAccount counts the account's trades newer than
// sinceTimestamp, fetching at most capPlusOne rows. Callers only learn
// whether the true count exceeds capPlusOne-1.
func (c *Client) CountRecentTradesForAccount(ctx context.Context, address string, sinceTimestamp int64, capPlusOne int) (int, error) {
	address = NormalizeAddress(address)
	if address == "" {
		return 0, &ParseError{Op: opCountTrades, Err: fmt.Errorf("address is empty")}
	}
	if capPlusOne <= 0 {
		capPlusOne = 1
	}
	query := fmt.Sprintf(
		`{ %s(first: %d, where: { creator: "%s", creationTimestamp_gt: "%d" }) { id } }`,
		c.tradesField, capPlusOne, address, sinceTimestamp,
	)

	var raw []rawID
	if err := c.query(ctx, opCountTrades, c.activityURL, query, c.tradesField, &raw); err != nil {
		return 0, err
	}
	return len(raw), nil
}

// query POSTs a GraphQL document and decodes data.<field> into dest.
func (c *Client) query(ctx context.Context, op, endpoint, query, field string, dest any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	body, err := json.Marshal(graphQLRequest{Query: query})
	if err != nil {
		return &ParseError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode/100 != 2 {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("body=%s", truncate(respBody))}
	}

	var gr graphQLResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return &ParseError{Op: op, Err: fmt.Errorf("decode json: %w", err)}
	}

	// The endpoint answered but rejected the query (bad field, indexer down).
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; "))}
	}

	raw, ok := gr.Data[field]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return &ParseError{Op: op, Err: fmt.Errorf("response missing data.%s", field)}
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &ParseError{Op: op, Err: fmt.Errorf("decode data.%s: %w", field, err)}
	}

	c.logger.Debug("subgraph query ok",
		zap.String("op", op),
		zap.Int("bytes", len(respBody)),
	)
	return nil
}

func truncate(b []byte) string {
	if len(b) <= maxErrorBody {
		return string(b)
	}
	return string(b[:maxErrorBody]) + "…"
}
