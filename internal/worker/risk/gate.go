package risk

import "web3-copytrade/internal/worker/model"

// DefaultMaxSlippageBps 10%
const DefaultMaxSlippageBps = 1000

// Gate 跟单前的风控检查，按顺序短路：黑名单 > 单笔上限 > 滑点上限
type Gate struct {
	maxSlippageBps int
}

func NewGate(maxSlippageBps int) *Gate {
	if maxSlippageBps <= 0 {
		maxSlippageBps = DefaultMaxSlippageBps
	}
	return &Gate{maxSlippageBps: maxSlippageBps}
}

func (g *Gate) MaxSlippageBps() int {
	return g.maxSlippageBps
}

func (g *Gate) Evaluate(c model.SwapCandidate, s model.BotSettings) model.TradeDecision {
	if s.IsBlacklisted(c.InputMint) || s.IsBlacklisted(c.OutputMint) {
		return model.Reject(c, model.RejectBlacklisted)
	}
	if c.Amount.GreaterThan(s.MaxAmountPerTx) {
		return model.Reject(c, model.RejectAmountExceeded)
	}
	if s.SlippageBps > g.maxSlippageBps {
		return model.Reject(c, model.RejectSlippageTooHigh)
	}
	return model.Approve(c)
}
