package risk

import (
	"testing"
	"web3-copytrade/internal/worker/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const (
	solMint  = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func candidate(amount string) model.SwapCandidate {
	return model.SwapCandidate{
		SourceWallet: "W1",
		InputMint:    solMint,
		OutputMint:   usdcMint,
		Amount:       decimal.RequireFromString(amount),
		SourceTxID:   "sig",
	}
}

func TestEvaluateApproves(t *testing.T) {
	g := NewGate(0)
	d := g.Evaluate(candidate("5"), model.NewBotSettings(decimal.NewFromInt(10), 50, 0, nil))
	assert.True(t, d.Approved)
	assert.Empty(t, d.RejectReason)
	assert.Equal(t, DefaultMaxSlippageBps, g.MaxSlippageBps())
}

func TestEvaluateAmountBoundary(t *testing.T) {
	g := NewGate(1000)
	s := model.NewBotSettings(decimal.NewFromInt(10), 50, 0, nil)

	assert.True(t, g.Evaluate(candidate("10"), s).Approved)

	d := g.Evaluate(candidate("10.000000001"), s)
	assert.False(t, d.Approved)
	assert.Equal(t, model.RejectAmountExceeded, d.RejectReason)
}

func TestEvaluateBlacklistPrecedence(t *testing.T) {
	g := NewGate(100)
	// 同时触发三条规则时黑名单优先
	s := model.NewBotSettings(decimal.NewFromInt(1), 500, 0, []string{usdcMint})
	d := g.Evaluate(candidate("50"), s)
	assert.Equal(t, model.RejectBlacklisted, d.RejectReason)

	s = model.NewBotSettings(decimal.NewFromInt(100), 50, 0, []string{solMint})
	assert.Equal(t, model.RejectBlacklisted, g.Evaluate(candidate("1"), s).RejectReason)
}

func TestEvaluateAmountBeforeSlippage(t *testing.T) {
	g := NewGate(100)
	s := model.NewBotSettings(decimal.NewFromInt(1), 500, 0, nil)
	assert.Equal(t, model.RejectAmountExceeded, g.Evaluate(candidate("2"), s).RejectReason)
}

func TestEvaluateSlippageCeiling(t *testing.T) {
	g := NewGate(100)
	assert.True(t, g.Evaluate(candidate("1"), model.NewBotSettings(decimal.NewFromInt(10), 100, 0, nil)).Approved)

	d := g.Evaluate(candidate("1"), model.NewBotSettings(decimal.NewFromInt(10), 101, 0, nil))
	assert.Equal(t, model.RejectSlippageTooHigh, d.RejectReason)
	assert.Equal(t, "W1", d.Candidate.SourceWallet)
}

func TestEvaluateDeterministic(t *testing.T) {
	g := NewGate(1000)
	s := model.NewBotSettings(decimal.NewFromInt(10), 50, 0, []string{" ", usdcMint, usdcMint})
	first := g.Evaluate(candidate("3"), s)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, g.Evaluate(candidate("3"), s))
	}
}
