package copytrade

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"whalebot/clients/notifier"
	"whalebot/config"
)

// ErrLiveExecutionUnavailable is returned in REAL mode: order placement is not wired up.
var ErrLiveExecutionUnavailable = errors.New("live copy-trade execution is not available")

// Instruction is a request to mirror a whale's trade.
type Instruction struct {
	ID           string
	WhaleAddress string
	MarketTitle  string
	Outcome      string
	Side         string
}

// NewInstruction builds an Instruction with a fresh ID.
func NewInstruction(whale, market, outcome, side string) Instruction {
	return Instruction{
		ID:           uuid.NewString(),
		WhaleAddress: whale,
		MarketTitle:  market,
		Outcome:      outcome,
		Side:         side,
	}
}

// MessageSender is the subset of notifier.Notifier the executor needs.
type MessageSender interface {
	SendMessage(text string)
}

// Executor mirrors whale trades. In SIMULATION mode it only logs and notifies.
type Executor struct {
	logger     *zap.Logger
	sender     MessageSender
	amount     decimal.Decimal
	simulation bool
}

func NewExecutor(logger *zap.Logger, cfg *config.Config, sender MessageSender) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("copytrade")

	e := &Executor{
		logger:     logger,
		sender:     sender,
		amount:     cfg.CopyTrade.Amount,
		simulation: cfg.CopyTrade.IsSimulation(),
	}

	logger.Info("copy-trade executor initialized",
		zap.String("mode", e.Mode()),
		zap.String("amount", e.amount.StringFixed(2)),
	)
	return e
}

// Mode returns SIMULATION or REAL.
func (e *Executor) Mode() string {
	if e.simulation {
		return config.TradeModeSimulation
	}
	return config.TradeModeReal
}

// Execute announces the copy trade and, in REAL mode, reports that live
// execution is unavailable.
func (e *Executor) Execute(ctx context.Context, in Instruction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	e.logger.Info("copying trade",
		zap.String("instructionID", in.ID),
		zap.String("mode", e.Mode()),
		zap.String("whale", in.WhaleAddress),
		zap.String("market", in.MarketTitle),
		zap.String("outcome", in.Outcome),
		zap.String("side", in.Side),
		zap.String("amount", e.amount.StringFixed(2)),
	)

	if e.sender != nil {
		e.sender.SendMessage(e.FormatMessage(in))
	}

	if !e.simulation {
		return fmt.Errorf("instruction %s: %w", in.ID, ErrLiveExecutionUnavailable)
	}
	return nil
}

// FormatMessage renders the copy-trade notification text. Feed-supplied
// fields are Markdown-escaped since channels send it with Markdown parsing.
func (e *Executor) FormatMessage(in Instruction) string {
	esc := notifier.EscapeMarkdown
	return fmt.Sprintf("📋 [%s] Copying Trade!\nWhale: %s\nMarket: %s\nOutcome: %s\nAction: %s\nAmount: $%s",
		e.Mode(), esc(in.WhaleAddress), esc(in.MarketTitle), esc(in.Outcome), esc(in.Side), e.amount.StringFixed(2))
}
