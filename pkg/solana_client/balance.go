package solana_client

import (
	"context"
	"fmt"
	"math/big"
	"web3-copytrade/pkg/utils"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// GetSOLBalance 钱包 SOL 余额（lamports 换算为 SOL）
func GetSOLBalance(ctx context.Context, client *rpc.Client, walletAddr string) (decimal.Decimal, error) {
	pubKey, err := solana.PublicKeyFromBase58(walletAddr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("无效的钱包地址: %w", err)
	}

	out, err := client.GetBalance(ctx, pubKey, rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("获取余额失败: %w", err)
	}

	return utils.AdjustDecimals(new(big.Int).SetUint64(out.Value), WSOLDecimals), nil
}
