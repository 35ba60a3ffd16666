package utils

import "fmt"

// SeenTxKey redis 去重键
func SeenTxKey(signature string) string {
	return fmt.Sprintf("copytrade:seen:%s", signature)
}

// LatestTradesKey 最近跟单记录 zset
func LatestTradesKey() string {
	return "copytrade:trades:latest"
}

// WalletTradesKey 单个源钱包最近跟单记录 zset
func WalletTradesKey(sourceWallet string) string {
	return fmt.Sprintf("copytrade:trades:wallet:%s", sourceWallet)
}

// MintDecimalsKey 代币精度缓存键
func MintDecimalsKey(mint string) string {
	return fmt.Sprintf("copytrade:mint_decimals:%s", mint)
}
