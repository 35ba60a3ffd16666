package solana_client

import (
	"context"
	"fmt"
	"time"
	"web3-copytrade/pkg/utils"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/patrickmn/go-cache"
)

// MintDecimals 查询代币精度，结果本地缓存（精度上链后不可变）
type MintDecimals struct {
	client *rpc.Client
	cache  *cache.Cache
}

func NewMintDecimals(client *rpc.Client) *MintDecimals {
	return &MintDecimals{
		client: client,
		cache:  cache.New(24*time.Hour, time.Hour),
	}
}

func (m *MintDecimals) Decimals(ctx context.Context, mint string) (uint8, error) {
	if mint == WSOLMint {
		return WSOLDecimals, nil
	}
	key := utils.MintDecimalsKey(mint)
	if v, ok := m.cache.Get(key); ok {
		return v.(uint8), nil
	}

	pk, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return 0, fmt.Errorf("invalid mint %s: %w", mint, err)
	}
	out, err := m.client.GetTokenSupply(ctx, pk, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get token supply %s: %w", mint, err)
	}
	if out == nil || out.Value == nil {
		return 0, fmt.Errorf("get token supply %s: empty result", mint)
	}

	m.cache.Set(key, out.Value.Decimals, cache.NoExpiration)
	return out.Value.Decimals, nil
}
