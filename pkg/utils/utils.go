package utils

import (
	"math/big"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// IsUnixSeconds 检查时间戳是否为秒级
func IsUnixSeconds(ts int64) bool {
	// 定义时间戳范围：1970-01-01 到 2100-01-01
	const maxUnix = 4_102_444_800 // 2100-01-01 00:00:00 UTC
	return ts >= 0 && ts < maxUnix
}

// IsValidSolanaAddress base58 且长度为 32 字节的公钥
func IsValidSolanaAddress(addr string) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return false
	}
	_, err := solana.PublicKeyFromBase58(addr)
	return err == nil
}

// AdjustDecimals 链上最小单位转 UI 数量
func AdjustDecimals(value *big.Int, decimals uint8) decimal.Decimal {
	decimalValue := decimal.NewFromBigInt(value, 0)
	divisor := decimal.New(1, int32(decimals))
	return decimalValue.Div(divisor)
}

// ToBaseUnits UI 数量转链上最小单位，多余精度向下截断
func ToBaseUnits(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt()
}

// NormalizeAddresses 去空白、去重，保持原顺序
func NormalizeAddresses(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	seen := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
