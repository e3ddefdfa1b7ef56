package subgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// ParseSide maps the subgraph "type" field to a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	}
	return "", fmt.Errorf("unknown trade side %q", s)
}

// TradeEvent is a single trade from the activity feed. Immutable once parsed.
type TradeEvent struct {
	ID               string
	Timestamp        int64 // unix seconds
	MarketTitle      string
	OutcomeIndex     string
	Side             Side
	Amount           decimal.Decimal
	CollateralAmount decimal.Decimal // USDC
	CreatorAddress   string          // lower-cased
}

// Account is a trader ranked by realized profit.
type Account struct {
	Address string // lower-cased
	Profit  float64
}

// TradePage is one poll of the activity feed. Records that could not be
// turned into a TradeEvent are counted in Skipped; NewestTimestamp still
// covers every record whose timestamp parsed.
type TradePage struct {
	Events          []TradeEvent
	NewestTimestamp int64
	Skipped         int
}

// ---- wire types ----

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []graphQLError             `json:"errors"`
}

type rawTrade struct {
	ID                string     `json:"id"`
	CreationTimestamp flexString `json:"creationTimestamp"`
	Title             string     `json:"title"`
	OutcomeIndex      flexString `json:"outcomeIndex"`
	Type              flexString `json:"type"`
	Amount            flexString `json:"amount"`
	CollateralAmount  flexString `json:"collateralAmount"`
	Creator           *struct {
		ID string `json:"id"`
	} `json:"creator"`
}

type rawUser struct {
	ID     string          `json:"id"`
	Profit decimal.Decimal `json:"profit"`
}

type rawID struct {
	ID string `json:"id"`
}

// flexString accepts a JSON string or number and keeps its textual form.
// Subgraph BigInt fields arrive quoted, but some deployments return numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(b))
	}
	*f = flexString(n.String())
	return nil
}

// timestamp parses creationTimestamp on its own so a record that is
// otherwise malformed can still move the cursor.
func (r rawTrade) timestamp() (int64, error) {
	ts, err := decimal.NewFromString(string(r.CreationTimestamp))
	if err != nil {
		return 0, fmt.Errorf("creationTimestamp %q: %w", r.CreationTimestamp, err)
	}
	return ts.IntPart(), nil
}

func (r rawTrade) toEvent() (TradeEvent, error) {
	if r.ID == "" {
		return TradeEvent{}, fmt.Errorf("trade without id")
	}
	ts, err := r.timestamp()
	if err != nil {
		return TradeEvent{}, fmt.Errorf("trade %s: %w", r.ID, err)
	}
	side, err := ParseSide(string(r.Type))
	if err != nil {
		return TradeEvent{}, fmt.Errorf("trade %s: %w", r.ID, err)
	}
	var creator string
	if r.Creator != nil {
		creator = NormalizeAddress(r.Creator.ID)
	}
	if creator == "" {
		return TradeEvent{}, fmt.Errorf("trade %s: missing creator", r.ID)
	}
	amount, err := r.Amount.toDecimal()
	if err != nil {
		return TradeEvent{}, fmt.Errorf("trade %s: amount: %w", r.ID, err)
	}
	collateral, err := r.CollateralAmount.toDecimal()
	if err != nil {
		return TradeEvent{}, fmt.Errorf("trade %s: collateralAmount: %w", r.ID, err)
	}

	return TradeEvent{
		ID:               r.ID,
		Timestamp:        ts,
		MarketTitle:      r.Title,
		OutcomeIndex:     string(r.OutcomeIndex),
		Side:             side,
		Amount:           amount,
		CollateralAmount: collateral,
		CreatorAddress:   creator,
	}, nil
}

// toDecimal parses the value; an absent or empty value is zero.
func (f flexString) toDecimal() (decimal.Decimal, error) {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// NormalizeAddress trims and lower-cases an account address.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
