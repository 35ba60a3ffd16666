package job

import (
	"context"
	"web3-copytrade/internal/worker/monitor"
	"web3-copytrade/pkg/solana_client"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type balanceFunc func(ctx context.Context, client *rpc.Client, addr string) (decimal.Decimal, error)

// BalanceCheck 定时查询跟单钱包 SOL 余额，低于阈值时告警
type BalanceCheck struct {
	client     *rpc.Client
	address    string
	minBalance decimal.Decimal
	tl         *zap.Logger
	fetch      balanceFunc
}

func NewBalanceCheck(client *rpc.Client, address string, minBalance decimal.Decimal, logger *zap.Logger) *BalanceCheck {
	return &BalanceCheck{
		client:     client,
		address:    address,
		minBalance: minBalance,
		tl:         logger,
		fetch:      solana_client.GetSOLBalance,
	}
}

func (j *BalanceCheck) Run(ctx context.Context) error {
	balance, err := j.fetch(ctx, j.client, j.address)
	if err != nil {
		return err
	}
	monitor.OperatorBalance.Set(balance.InexactFloat64())

	if balance.LessThan(j.minBalance) {
		j.tl.Warn("Operator wallet balance below threshold, swaps may fail",
			zap.String("address", j.address),
			zap.String("balance_sol", balance.String()),
			zap.String("min_balance_sol", j.minBalance.String()))
		return nil
	}
	j.tl.Debug("Operator wallet balance",
		zap.String("address", j.address),
		zap.String("balance_sol", balance.String()))
	return nil
}
