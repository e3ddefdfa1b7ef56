package copytrade

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whalebot/config"
)

type recordingSender struct {
	messages []string
}

func (r *recordingSender) SendMessage(text string) {
	r.messages = append(r.messages, text)
}

func newExecutor(mode string, amount string, sender MessageSender) *Executor {
	cfg := config.Defaults()
	cfg.CopyTrade.Mode = mode
	cfg.CopyTrade.Amount = decimal.RequireFromString(amount)
	return NewExecutor(nil, cfg, sender)
}

func TestNewInstruction(t *testing.T) {
	a := NewInstruction("0xabc", "Market", "Yes", "Buy")
	b := NewInstruction("0xabc", "Market", "Yes", "Buy")

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "0xabc", a.WhaleAddress)
	assert.Equal(t, "Buy", a.Side)
}

func TestExecute_Simulation(t *testing.T) {
	sender := &recordingSender{}
	exec := newExecutor(config.TradeModeSimulation, "10", sender)

	err := exec.Execute(context.Background(), NewInstruction("0xabc", "Will it rain?", "1", "Buy"))
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.True(t, strings.HasPrefix(msg, "📋 [SIMULATION] Copying Trade!"), msg)
	assert.Contains(t, msg, "Whale: 0xabc")
	assert.Contains(t, msg, "Market: Will it rain?")
	assert.Contains(t, msg, "Outcome: 1")
	assert.Contains(t, msg, "Action: Buy")
	assert.Contains(t, msg, "Amount: $10.00")
}

func TestFormatMessage_EscapesFeedFields(t *testing.T) {
	exec := newExecutor(config.TradeModeSimulation, "10", nil)

	msg := exec.FormatMessage(NewInstruction("0xabc", "Will *BTC* hit 100k_by [June]?", "Yes_1", "Buy"))

	assert.Contains(t, msg, `Market: Will \*BTC\* hit 100k\_by \[June\]?`)
	assert.Contains(t, msg, `Outcome: Yes\_1`)
	assert.True(t, strings.HasPrefix(msg, "📋 [SIMULATION] Copying Trade!"), msg)
}

func TestExecute_Real(t *testing.T) {
	sender := &recordingSender{}
	exec := newExecutor("real", "25.5", sender)
	assert.Equal(t, config.TradeModeReal, exec.Mode())

	err := exec.Execute(context.Background(), Instruction{WhaleAddress: "0xabc"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLiveExecutionUnavailable))

	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], "[REAL]")
	assert.Contains(t, sender.messages[0], "Amount: $25.50")
}

func TestExecute_CancelledContext(t *testing.T) {
	sender := &recordingSender{}
	exec := newExecutor(config.TradeModeSimulation, "10", sender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Execute(ctx, NewInstruction("0xabc", "m", "o", "Buy"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sender.messages)
}

func TestExecute_NilSender(t *testing.T) {
	exec := newExecutor(config.TradeModeSimulation, "10", nil)
	assert.NoError(t, exec.Execute(context.Background(), Instruction{}))
}
