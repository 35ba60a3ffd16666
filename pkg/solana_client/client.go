package solana_client

import (
	"github.com/gagliardetto/solana-go/rpc"
)

// WSOLMint 原生 SOL 在 swap 中使用的 mint
const (
	WSOLMint     = "So11111111111111111111111111111111111111112"
	WSOLDecimals = 9
)

// Init solana client
func Init(rawUrl string) *rpc.Client {
	client := rpc.New(rawUrl)
	return client
}
